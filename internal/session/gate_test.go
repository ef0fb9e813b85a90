package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeToken builds a three-segment token whose middle segment carries
// the given claims. Signature is garbage; the gate never verifies it.
func makeToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return fmt.Sprintf("eyJhbGciOiJIUzI1NiJ9.%s.c2lnbmF0dXJl",
		base64.RawURLEncoding.EncodeToString(payload))
}

func newGateAt(store storage.KVStore, now time.Time) *Gate {
	g := NewGate(store)
	g.now = func() time.Time { return now }
	return g
}

func TestDecodeClaims_Success(t *testing.T) {
	token := makeToken(t, map[string]interface{}{"sub": "u1", "role": "STAFF", "exp": 1700000000})

	claims, err := DecodeClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Sub)
	assert.Equal(t, "STAFF", claims.Role)
	assert.Equal(t, int64(1700000000), claims.Exp)
}

func TestDecodeClaims_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"two segments":      "aaaa.bbbb",
		"four segments":     "a.b.c.d",
		"not base64":        "aaaa.!!!!.cccc",
		"not json":          "aaaa." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".cccc",
		"missing exp claim": "aaaa." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u1"}`)) + ".cccc",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := DecodeClaims(token)
			assert.ErrorIs(t, err, ErrMalformedToken)
			assert.Nil(t, claims)
		})
	}
}

func TestIsExpired_NoToken(t *testing.T) {
	sut := NewGate(storage.NewMemoryStore())
	assert.True(t, sut.IsExpired())
}

func TestIsExpired_MalformedToken(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.KeyToken, "garbage"))

	sut := NewGate(store)
	assert.True(t, sut.IsExpired())
}

func TestIsExpired_WithinGraceWindow(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()

	// 30 seconds of literal validity left: inside the 60s grace window.
	token := makeToken(t, map[string]interface{}{"exp": now.Add(30 * time.Second).Unix()})
	require.NoError(t, store.Set(storage.KeyToken, token))

	sut := newGateAt(store, now)
	assert.True(t, sut.IsExpired())
}

func TestIsExpired_ValidToken(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()

	token := makeToken(t, map[string]interface{}{"exp": now.Add(3600 * time.Second).Unix()})
	require.NoError(t, store.Set(storage.KeyToken, token))

	sut := newGateAt(store, now)
	assert.False(t, sut.IsExpired())
}

func TestTimeRemaining_ClampedToZero(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()

	token := makeToken(t, map[string]interface{}{"exp": now.Add(-time.Hour).Unix()})
	require.NoError(t, store.Set(storage.KeyToken, token))

	sut := newGateAt(store, now)
	assert.Equal(t, int64(0), sut.TimeRemaining())
}

func TestTimeRemaining_FloorSeconds(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	store := storage.NewMemoryStore()

	token := makeToken(t, map[string]interface{}{"exp": now.Add(90 * time.Second).Unix()})
	require.NoError(t, store.Set(storage.KeyToken, token))

	sut := newGateAt(store, now.Add(500*time.Millisecond))
	assert.Equal(t, int64(89), sut.TimeRemaining())
}

func TestSetSession_ThenClearSession(t *testing.T) {
	store := storage.NewMemoryStore()
	sut := NewGate(store)

	require.NoError(t, sut.SetSession("a.b.c", "CUSTOMER", `{"id":1}`))
	assert.Equal(t, "a.b.c", sut.Token())
	assert.Equal(t, "CUSTOMER", sut.Role())

	sut.ClearSession()
	assert.Empty(t, sut.Token())
	assert.Empty(t, sut.Role())
	_, err := store.Get(storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestWatcher_FiresExpiredOnceOnTransition(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()
	token := makeToken(t, map[string]interface{}{"exp": now.Add(time.Hour).Unix()})
	require.NoError(t, store.Set(storage.KeyToken, token))

	gate := newGateAt(store, now)

	var expiredCount atomic.Int32
	sut := NewWatcher(gate, 5*time.Millisecond)
	sut.OnExpired = func() { expiredCount.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sut.Run(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), expiredCount.Load())

	// Session invalidated mid-run.
	require.NoError(t, store.Delete(storage.KeyToken))

	require.Eventually(t, func() bool {
		return expiredCount.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Stays at one: the transition already fired.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), expiredCount.Load())
}

func TestWatcher_WarnsBelowThreshold(t *testing.T) {
	now := time.Now()
	store := storage.NewMemoryStore()

	// 200s remaining: valid (past grace) but under the 300s threshold.
	token := makeToken(t, map[string]interface{}{"exp": now.Add(200 * time.Second).Unix()})
	require.NoError(t, store.Set(storage.KeyToken, token))

	gate := newGateAt(store, now)

	var warned atomic.Int64
	sut := NewWatcher(gate, 5*time.Millisecond)
	sut.OnWarning = func(remaining int64) { warned.Store(remaining) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sut.Run(ctx)

	require.Eventually(t, func() bool {
		return warned.Load() > 0
	}, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 200, warned.Load(), 2)
}

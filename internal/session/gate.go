package session

import (
	"log"
	"time"

	"github.com/fjod/go_storefront/internal/storage"
)

// GraceWindow is how long before the literal exp claim a token is
// already treated as expired, so requests in flight at the boundary
// don't race a backend-side rejection.
const GraceWindow = 60 * time.Second

// Gate reports session validity from the persisted bearer token and
// gates checkout on it. Fails closed: no token, undecodable token or a
// missing exp claim all read as expired.
type Gate struct {
	store storage.KVStore
	grace time.Duration
	now   func() time.Time
}

func NewGate(store storage.KVStore) *Gate {
	return &Gate{store: store, grace: GraceWindow, now: time.Now}
}

func (g *Gate) Token() string {
	token, err := g.store.Get(storage.KeyToken)
	if err != nil {
		return ""
	}
	return token
}

func (g *Gate) Role() string {
	role, err := g.store.Get(storage.KeyRole)
	if err != nil {
		return ""
	}
	return role
}

// SetSession stores a fresh login result.
func (g *Gate) SetSession(token, role, userJSON string) error {
	if err := g.store.Set(storage.KeyToken, token); err != nil {
		return err
	}
	if err := g.store.Set(storage.KeyRole, role); err != nil {
		return err
	}
	return g.store.Set(storage.KeyUser, userJSON)
}

// ClearSession removes the token, role and user records.
func (g *Gate) ClearSession() {
	for _, key := range []string{storage.KeyToken, storage.KeyRole, storage.KeyUser} {
		if err := g.store.Delete(key); err != nil {
			log.Printf("failed to clear session key %q: %v", key, err)
		}
	}
}

func (g *Gate) IsExpired() bool {
	return g.remaining() <= g.grace
}

// TimeRemaining returns whole seconds until the exp claim, clamped to
// zero. The grace window is not subtracted; it only affects IsExpired.
func (g *Gate) TimeRemaining() int64 {
	remaining := g.remaining()
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

func (g *Gate) remaining() time.Duration {
	token := g.Token()
	if token == "" {
		return 0
	}
	claims, err := DecodeClaims(token)
	if err != nil {
		return 0
	}
	return time.Unix(claims.Exp, 0).Sub(g.now())
}

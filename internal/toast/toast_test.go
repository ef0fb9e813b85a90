package toast

import (
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow_SetsCurrent(t *testing.T) {
	sut := NewManager(time.Minute)

	sut.Show(domain.Notification{ProductID: 1, ProductName: "Laptop", Quantity: 2})

	current := sut.Current()
	require.NotNil(t, current)
	assert.Equal(t, int64(1), current.ProductID)
	assert.Equal(t, 2, current.Quantity)
}

func TestShow_AutoDismissesAfterTTL(t *testing.T) {
	sut := NewManager(20 * time.Millisecond)

	sut.Show(domain.Notification{ProductID: 1})

	require.Eventually(t, func() bool {
		return sut.Current() == nil
	}, time.Second, 5*time.Millisecond, "toast was not auto-dismissed")
}

func TestShow_PreemptsPreviousToast(t *testing.T) {
	sut := NewManager(30 * time.Millisecond)

	sut.Show(domain.Notification{ProductID: 1})
	time.Sleep(20 * time.Millisecond)

	// Second toast lands just before the first timer would have fired.
	sut.Show(domain.Notification{ProductID: 2})
	time.Sleep(15 * time.Millisecond)

	// The stale timer must not have cleared the newer toast.
	current := sut.Current()
	require.NotNil(t, current)
	assert.Equal(t, int64(2), current.ProductID)

	require.Eventually(t, func() bool {
		return sut.Current() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestHide_ClearsImmediately(t *testing.T) {
	sut := NewManager(time.Minute)

	sut.Show(domain.Notification{ProductID: 1})
	sut.Hide()

	assert.Nil(t, sut.Current())
}

func TestHide_NoToastIsNoop(t *testing.T) {
	sut := NewManager(time.Minute)
	sut.Hide()
	assert.Nil(t, sut.Current())
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	sut := NewManager(time.Minute)

	sut.Show(domain.Notification{ProductID: 1, Quantity: 1})
	first := sut.Current()
	first.Quantity = 99

	second := sut.Current()
	assert.Equal(t, 1, second.Quantity)
}

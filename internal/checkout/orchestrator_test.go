package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCart struct {
	m       sync.Mutex
	lines   []domain.CartLine
	cleared bool
}

func (c *mockCart) Lines() []domain.CartLine {
	c.m.Lock()
	defer c.m.Unlock()
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *mockCart) Clear() {
	c.m.Lock()
	defer c.m.Unlock()
	c.lines = nil
	c.cleared = true
}

func (c *mockCart) wasCleared() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.cleared
}

type mockGate struct{ expired bool }

func (g *mockGate) IsExpired() bool { return g.expired }

type mockOrders struct {
	m       sync.Mutex
	orderID string
	err     error
	drafts  []domain.OrderDraft
	block   chan struct{} // when set, SubmitOrder waits on it
}

func (o *mockOrders) SubmitOrder(_ context.Context, draft domain.OrderDraft) (string, error) {
	o.m.Lock()
	o.drafts = append(o.drafts, draft)
	block := o.block
	o.m.Unlock()

	if block != nil {
		<-block
	}
	if o.err != nil {
		return "", o.err
	}
	return o.orderID, nil
}

func (o *mockOrders) submitted() []domain.OrderDraft {
	o.m.Lock()
	defer o.m.Unlock()
	out := make([]domain.OrderDraft, len(o.drafts))
	copy(out, o.drafts)
	return out
}

var (
	validAddress = domain.Address{
		FirstName: "Ada", LastName: "Lovelace", Street: "1 Main St",
		City: "London", Postcode: "E1", Phone: "555",
	}
	twoLines = []domain.CartLine{
		{ProductID: 1, Name: "P1", UnitPrice: 100, Quantity: 2},
		{ProductID: 2, Name: "P2", UnitPrice: 50, Quantity: 1},
	}
)

func TestSubmit_Success(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{orderID: "ord-1"}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	receipt, err := sut.Submit(context.Background(), domain.ShippingDelivery, validAddress, PaymentCard)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, sut.Status())
	assert.True(t, cartMock.wasCleared())

	require.NotNil(t, receipt)
	assert.Equal(t, "ord-1", receipt.OrderID)
	assert.Equal(t, float64(250), receipt.Subtotal)
	assert.Equal(t, float64(10), receipt.DeliveryFee)
	assert.Equal(t, float64(0), receipt.Discount)
	assert.Equal(t, float64(260), receipt.Total)

	drafts := orders.submitted()
	require.Len(t, drafts, 1)
	assert.NotEmpty(t, drafts[0].IdempotencyKey)
}

func TestSubmit_ExpiredSessionBlocksBeforeNetwork(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{orderID: "ord-1"}
	sut := NewOrchestrator(cartMock, &mockGate{expired: true}, orders)

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, StatusSessionExpired, sut.Status())
	assert.Empty(t, orders.submitted(), "no network call expected")
	assert.False(t, cartMock.wasCleared())
}

func TestSubmit_ValidationRejectsBeforeNetwork(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{orderID: "ord-1"}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	addr := validAddress
	addr.Phone = ""
	_, err := sut.Submit(context.Background(), domain.ShippingDelivery, addr, PaymentCard)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Fields, 1)
	assert.Equal(t, "phone", validationErr.Fields[0].Field)

	assert.Equal(t, StatusEditing, sut.Status())
	assert.Empty(t, orders.submitted(), "no network call expected")
}

func TestSubmit_PickupSkipsAddressAndUsesSentinel(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{orderID: "ord-1"}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	require.NoError(t, err)

	drafts := orders.submitted()
	require.Len(t, drafts, 1)
	assert.Equal(t, domain.StorePickupAddress, drafts[0].ShippingAddress)
	assert.Equal(t, float64(0), drafts[0].DeliveryFee)
}

func TestSubmit_EmptyCart(t *testing.T) {
	sut := NewOrchestrator(&mockCart{}, &mockGate{}, &mockOrders{})

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StatusEditing, sut.Status())
}

func TestSubmit_BackendSessionExpiry(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{err: api.ErrSessionExpired}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, StatusSessionExpired, sut.Status())
	assert.False(t, cartMock.wasCleared(), "cart must survive an expired-session submission")
}

func TestSubmit_TransientFailureKeepsCart(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{err: errors.New("upstream unavailable")}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	require.ErrorContains(t, err, "upstream unavailable")

	assert.Equal(t, StatusFailed, sut.Status())
	assert.False(t, cartMock.wasCleared())

	// FAILED returns to EDITING for a retry.
	require.NoError(t, sut.Reset())
	assert.Equal(t, StatusEditing, sut.Status())

	orders.err = nil
	orders.orderID = "ord-2"
	receipt, errRetry := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	require.NoError(t, errRetry)
	assert.Equal(t, "ord-2", receipt.OrderID)
}

func TestSubmit_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	block := make(chan struct{})
	orders := &mockOrders{orderID: "ord-1", block: block}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	done := make(chan error, 1)
	go func() {
		_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(orders.submitted()) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(block)
	require.NoError(t, <-done)
	assert.Len(t, orders.submitted(), 1)
}

func TestSubmit_OnlineBankingRequiresConfirmation(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	orders := &mockOrders{orderID: "ord-1"}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentOnlineBanking)
	assert.ErrorIs(t, err, ErrConfirmRequired)

	require.NoError(t, sut.BeginConfirmation())
	receipt, errSubmit := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentOnlineBanking)
	require.NoError(t, errSubmit)
	assert.Equal(t, "ord-1", receipt.OrderID)
}

func TestCancelConfirmation_ReturnsToEditing(t *testing.T) {
	sut := NewOrchestrator(&mockCart{lines: twoLines}, &mockGate{}, &mockOrders{})

	require.NoError(t, sut.BeginConfirmation())
	assert.Equal(t, StatusConfirming, sut.Status())

	require.NoError(t, sut.CancelConfirmation())
	assert.Equal(t, StatusEditing, sut.Status())
}

func TestAbandon_DiscardsLateResponse(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	block := make(chan struct{})
	orders := &mockOrders{orderID: "ord-1", block: block}
	sut := NewOrchestrator(cartMock, &mockGate{}, orders)

	done := make(chan error, 1)
	go func() {
		_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(orders.submitted()) == 1
	}, time.Second, 5*time.Millisecond)

	sut.Abandon()
	close(block)

	assert.ErrorIs(t, <-done, ErrAbandoned)
	assert.False(t, cartMock.wasCleared(), "late success must not mutate state")
	assert.NotEqual(t, StatusPaid, sut.Status())
	assert.Nil(t, sut.Receipt())
}

func TestSubmit_TerminalStateRejectsFurtherSubmits(t *testing.T) {
	cartMock := &mockCart{lines: twoLines}
	sut := NewOrchestrator(cartMock, &mockGate{}, &mockOrders{orderID: "ord-1"})

	_, err := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	require.NoError(t, err)

	_, errAgain := sut.Submit(context.Background(), domain.ShippingPickup, domain.Address{}, PaymentCard)
	assert.ErrorIs(t, errAgain, ErrIllegalTransition)
}

// End to end over the real cart service: add P1 (100) x2 and P2 (50) x1,
// delivery totals 260 below the discount threshold, submission with a
// valid session empties the cart and the receipt keeps the prices the
// items were submitted at.
func TestCheckout_EndToEnd(t *testing.T) {
	store := storage.NewMemoryStore()
	cartService := cart.NewService(store, nil)
	cartService.AddItem(domain.Product{ID: 1, Name: "P1", Price: 100}, 2, nil)
	cartService.AddItem(domain.Product{ID: 2, Name: "P2", Price: 50}, 1, nil)

	require.Equal(t, float64(250), cartService.Subtotal())
	cartService.Flush()

	orders := &mockOrders{orderID: "ord-9"}
	sut := NewOrchestrator(cartService, &mockGate{}, orders)

	receipt, err := sut.Submit(context.Background(), domain.ShippingDelivery, validAddress, PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, float64(260), receipt.Total)

	// Cart cleared, persisted record gone.
	cartService.Flush()
	assert.Equal(t, 0, cartService.Len())
	_, errGet := store.Get(storage.KeyCart)
	assert.ErrorIs(t, errGet, storage.ErrKeyNotFound)

	// Receipt is a snapshot: later cart mutations don't touch it.
	cartService.AddItem(domain.Product{ID: 1, Name: "P1", Price: 999}, 1, nil)
	again := sut.Receipt()
	require.Len(t, again.Items, 2)
	assert.Equal(t, float64(100), again.Items[0].UnitPrice)
	assert.Equal(t, float64(50), again.Items[1].UnitPrice)
}

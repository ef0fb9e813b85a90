package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/api"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/google/uuid"
)

// PaymentMethod selects the confirmation path. Online banking and
// e-wallet go through a simulated confirm-then-proceed dialog; card
// submits directly. None of this touches a real payment network.
type PaymentMethod string

const (
	PaymentCard          PaymentMethod = "CARD"
	PaymentOnlineBanking PaymentMethod = "ONLINE_BANKING"
	PaymentEWallet       PaymentMethod = "E_WALLET"
)

func (m PaymentMethod) NeedsConfirmation() bool {
	return m == PaymentOnlineBanking || m == PaymentEWallet
}

// Cart is the slice of the cart service the orchestrator needs.
type Cart interface {
	Lines() []domain.CartLine
	Clear()
}

// SessionGate gates submission on session validity.
type SessionGate interface {
	IsExpired() bool
}

// OrderSubmitter posts the order draft to the order intake backend.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, draft domain.OrderDraft) (string, error)
}

// ValidationError aggregates the missing address fields of a rejected
// submission. The cart and checkout state are untouched.
type ValidationError struct {
	Fields []*FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("missing required address fields: %v", names)
}

// Orchestrator drives a single checkout attempt through
// EDITING -> (CONFIRMING) -> SUBMITTING -> PAID | FAILED | SESSION_EXPIRED.
// PAID and SESSION_EXPIRED are terminal; FAILED returns to EDITING via
// Reset. At most one submission is in flight at a time.
type Orchestrator struct {
	mu        sync.Mutex
	status    Status
	cart      Cart
	gate      SessionGate
	orders    OrderSubmitter
	inFlight  bool
	abandoned bool
	receipt   *domain.Receipt
	now       func() time.Time
}

func NewOrchestrator(cart Cart, gate SessionGate, orders OrderSubmitter) *Orchestrator {
	return &Orchestrator{
		status: StatusEditing,
		cart:   cart,
		gate:   gate,
		orders: orders,
		now:    time.Now,
	}
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Receipt returns the snapshot of a PAID checkout, nil otherwise.
func (o *Orchestrator) Receipt() *domain.Receipt {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.receipt == nil {
		return nil
	}
	r := *o.receipt
	r.Items = append([]domain.OrderDraftItem(nil), o.receipt.Items...)
	return &r
}

// BeginConfirmation opens the simulated payment confirmation dialog.
func (o *Orchestrator) BeginConfirmation() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transitionLocked(StatusConfirming)
}

// CancelConfirmation closes the dialog and returns to editing.
func (o *Orchestrator) CancelConfirmation() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusConfirming {
		return ErrIllegalTransition
	}
	o.status = StatusEditing
	return nil
}

// Reset returns a FAILED attempt to EDITING for a retry.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transitionLocked(StatusEditing)
}

// Abandon marks the checkout as navigated away from: any open
// confirmation dialog is dropped and a late submission response is
// discarded instead of mutating state.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.abandoned = true
	if o.status == StatusConfirming {
		o.status = StatusEditing
	}
}

// Submit validates, builds the order draft and posts it. The in-memory
// cart is only cleared after the backend accepts the order.
func (o *Orchestrator) Submit(ctx context.Context, method domain.ShippingMethod, addr domain.Address, payment PaymentMethod) (*domain.Receipt, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if o.status != StatusEditing && o.status != StatusConfirming {
		o.mu.Unlock()
		return nil, ErrIllegalTransition
	}
	if payment.NeedsConfirmation() && o.status != StatusConfirming {
		o.mu.Unlock()
		return nil, ErrConfirmRequired
	}

	if o.gate.IsExpired() {
		o.status = StatusSessionExpired
		o.mu.Unlock()
		return nil, ErrSessionExpired
	}

	if fieldErrs := ValidateAddress(method, addr); len(fieldErrs) > 0 {
		o.mu.Unlock()
		return nil, &ValidationError{Fields: fieldErrs}
	}

	lines := o.cart.Lines()
	if len(lines) == 0 {
		o.mu.Unlock()
		return nil, ErrEmptyCart
	}

	draft := buildDraft(lines, method, addr)
	o.status = StatusSubmitting
	o.inFlight = true
	o.mu.Unlock()

	orderID, err := o.orders.SubmitOrder(ctx, draft)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	if o.abandoned {
		// Navigated away mid-flight: drop the response on the floor.
		log.Printf("discarding checkout response after abandon, order_id = %q err = %v", orderID, err)
		return nil, ErrAbandoned
	}

	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			o.status = StatusSessionExpired
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		o.status = StatusFailed
		return nil, fmt.Errorf("order submission failed: %w", err)
	}

	o.cart.Clear()
	o.receipt = &domain.Receipt{
		OrderID:        orderID,
		Items:          draft.Items,
		ShippingMethod: draft.ShippingMethod,
		Subtotal:       draft.Subtotal,
		DeliveryFee:    draft.DeliveryFee,
		Discount:       draft.Discount,
		Total:          draft.Total,
		CapturedAt:     o.now(),
	}
	o.status = StatusPaid

	receipt := *o.receipt
	receipt.Items = append([]domain.OrderDraftItem(nil), o.receipt.Items...)
	return &receipt, nil
}

func buildDraft(lines []domain.CartLine, method domain.ShippingMethod, addr domain.Address) domain.OrderDraft {
	if method == domain.ShippingPickup {
		addr = domain.StorePickupAddress
	}

	items := make([]domain.OrderDraftItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderDraftItem{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VariantName: l.Variant.Key(),
		})
	}

	pricing := Quote(lines, method)
	return domain.OrderDraft{
		IdempotencyKey:  uuid.NewString(),
		ShippingMethod:  method,
		ShippingAddress: addr,
		Items:           items,
		Subtotal:        pricing.Subtotal,
		DeliveryFee:     pricing.DeliveryFee,
		Discount:        pricing.Discount,
		Total:           pricing.Total,
	}
}

func (o *Orchestrator) transitionLocked(to Status) error {
	if !CanTransitionTo(o.status, to) {
		return ErrIllegalTransition
	}
	o.status = to
	return nil
}

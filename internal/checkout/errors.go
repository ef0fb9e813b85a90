package checkout

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrSubmitInFlight    = errors.New("an order submission is already in flight")
	ErrAbandoned         = errors.New("checkout abandoned before submission completed")
	ErrConfirmRequired   = errors.New("payment confirmation required before submitting")
	ErrSessionExpired    = errors.New("session expired, re-authentication required")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)

package checkout

type Status string

const (
	StatusEditing        Status = "EDITING"
	StatusConfirming     Status = "CONFIRMING"
	StatusSubmitting     Status = "SUBMITTING"
	StatusPaid           Status = "PAID"
	StatusFailed         Status = "FAILED"
	StatusSessionExpired Status = "SESSION_EXPIRED"
)

// IsTerminal reports whether the checkout attempt is over. A new attempt
// needs a fresh orchestrator (or a fresh login for SESSION_EXPIRED).
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusSessionExpired
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo encodes the checkout state machine. CONFIRMING is only
// entered on the simulated online-banking path; other payment methods go
// straight to SUBMITTING.
func CanTransitionTo(from, to Status) bool {
	switch from {
	case StatusEditing:
		return to == StatusConfirming || to == StatusSubmitting || to == StatusSessionExpired
	case StatusConfirming:
		return to == StatusSubmitting || to == StatusEditing || to == StatusSessionExpired
	case StatusSubmitting:
		return to == StatusPaid || to == StatusFailed || to == StatusSessionExpired
	case StatusFailed:
		return to == StatusEditing
	default:
		return false
	}
}

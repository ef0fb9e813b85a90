package api

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned for 401 responses and for 403
	// responses whose payload indicates an expired token. The local
	// session has already been cleared when this is returned.
	ErrSessionExpired = errors.New("session expired")

	// ErrForbidden is a 403 that is not an expiry: insufficient
	// permission. Local session state is left untouched so the caller
	// can show a contextual message.
	ErrForbidden = errors.New("forbidden")
)

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

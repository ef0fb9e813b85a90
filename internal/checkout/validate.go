package checkout

import (
	"fmt"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
)

// FieldError reports a single missing address field. Validation happens
// before any network call; no partial submission.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("required field %q is empty", e.Field)
}

// ValidateAddress checks the shipping address for the chosen method.
// DELIVERY requires every field non-blank; PICKUP requires nothing (the
// store address sentinel is used instead).
func ValidateAddress(method domain.ShippingMethod, addr domain.Address) []*FieldError {
	if method != domain.ShippingDelivery {
		return nil
	}

	fields := []struct {
		name  string
		value string
	}{
		{"firstName", addr.FirstName},
		{"lastName", addr.LastName},
		{"street", addr.Street},
		{"city", addr.City},
		{"postcode", addr.Postcode},
		{"phone", addr.Phone},
	}

	var errs []*FieldError
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, &FieldError{Field: f.name})
		}
	}
	return errs
}

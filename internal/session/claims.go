package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var ErrMalformedToken = errors.New("malformed token")

// Claims is the decoded payload of a bearer token. Only the fields the
// storefront reads; everything else in the payload is ignored.
type Claims struct {
	Sub  string `json:"sub,omitempty"`
	Role string `json:"role,omitempty"`
	Exp  int64  `json:"exp"`
}

// DecodeClaims parses the middle segment of a three-part dot-delimited
// token as base64url-encoded JSON. The signature is not verified here;
// the backend is the authority, this decode only drives client-side
// expiry gating. Any malformed input yields ErrMalformedToken.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, ErrMalformedToken
	}

	var claims struct {
		Sub  string          `json:"sub"`
		Role string          `json:"role"`
		Exp  json.RawMessage `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformedToken
	}
	if len(claims.Exp) == 0 {
		return nil, ErrMalformedToken
	}

	var exp float64
	if err := json.Unmarshal(claims.Exp, &exp); err != nil {
		return nil, ErrMalformedToken
	}

	return &Claims{Sub: claims.Sub, Role: claims.Role, Exp: int64(exp)}, nil
}

// Package api is the JSON-over-HTTPS client for the storefront backend.
// It owns exactly one cross-cutting concern besides transport: session
// lifecycle. A 401 always invalidates the local session; a 403 does so
// only when the error payload reads as an expiry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// SessionStore is the slice of the session gate the client needs.
type SessionStore interface {
	Token() string
	ClearSession()
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	session SessionStore
	breaker *gobreaker.CircuitBreaker[*http.Response]

	// OnSessionExpired runs after the session has been cleared on a 401
	// or expiry 403, typically forcing navigation to re-authentication.
	OnSessionExpired func()
}

func NewClient(baseURL string, session SessionStore) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: 30 * time.Second,
	})

	return &Client{
		baseURL: u,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		session: session,
		breaker: breaker,
	}, nil
}

// do issues a request and decodes a 2xx JSON body into out (when out is
// non-nil). Non-2xx responses are converted to the package error types.
func (c *Client) do(ctx context.Context, method, path, rawQuery string, body, out interface{}) error {
	rel := &url.URL{Path: path, RawQuery: rawQuery}
	u := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if errDecode := json.NewDecoder(resp.Body).Decode(out); errDecode != nil {
			return fmt.Errorf("failed to decode response body: %w", errDecode)
		}
		return nil
	}

	return c.asError(resp)
}

func (c *Client) asError(resp *http.Response) error {
	message := errorMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.expireSession()
		return ErrSessionExpired

	case http.StatusForbidden:
		// No structured code from the backend; the expiry heuristic is
		// a substring check on the error text, kept deliberately.
		if looksExpired(message) {
			c.expireSession()
			return fmt.Errorf("%w: %s", ErrSessionExpired, message)
		}
		return fmt.Errorf("%w: %s", ErrForbidden, message)

	default:
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}
}

func (c *Client) expireSession() {
	c.session.ClearSession()
	if c.OnSessionExpired != nil {
		c.OnSessionExpired()
	}
}

// errorMessage pulls the {message|error} text out of an error payload.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 1<<16))
	if err != nil {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if errUnmarshal := json.Unmarshal(data, &payload); errUnmarshal != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func looksExpired(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "expired") || strings.Contains(lower, "token")
}

package erpnext

import (
	"errors"
	"fmt"
)

// Common ERPNext client errors
var (
	// ErrUnauthorized is returned when the server answers 401/403. The session
	// is no longer valid; callers must re-authenticate and abort the query in
	// progress rather than retry.
	ErrUnauthorized = errors.New("erpnext session expired or not authorized")

	// ErrLoginFailed is returned when a login attempt does not yield a session
	// cookie.
	ErrLoginFailed = errors.New("erpnext login failed")

	// ErrNotLoggedIn is returned when a fetch is attempted without an
	// authenticated session.
	ErrNotLoggedIn = errors.New("not logged in to erpnext")
)

// APIError is returned for non-2xx responses other than authentication
// failures. It carries the raw server body so callers can surface it.
type APIError struct {
	// Op is the operation that failed (e.g., "Get", "Login").
	Op string

	// Path is the resource path that was requested.
	Path string

	// StatusCode is the HTTP status returned by the server.
	StatusCode int

	// Body is the raw response body, when available.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("erpnext: %s %s failed: HTTP %d: %s", e.Op, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("erpnext: %s %s failed: HTTP %d", e.Op, e.Path, e.StatusCode)
}

// FetchError wraps transport and decoding failures with the operation and
// resource that produced them.
type FetchError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("erpnext: %s %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *FetchError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

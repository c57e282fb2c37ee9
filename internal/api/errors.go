package api

import (
	"errors"
	"fmt"
	"net/http"
)

// API errors.
var (
	// ErrNoPermission is returned for 401/403 responses. Callers surface it
	// as a distinct "no permission" state rather than a generic failure.
	ErrNoPermission = errors.New("no permission for this operation")

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrBadRequest is returned for 4xx responses the client caused.
	ErrBadRequest = errors.New("request rejected by backend")

	// ErrBackend is returned for 5xx responses.
	ErrBackend = errors.New("backend failure")
)

// statusError maps an unexpected HTTP status to a sentinel error.
func statusError(status int, body string) error {
	var base error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		base = ErrNoPermission
	case status == http.StatusNotFound:
		base = ErrNotFound
	case status >= 400 && status < 500:
		base = ErrBadRequest
	default:
		base = ErrBackend
	}
	if body == "" {
		return fmt.Errorf("%w (status %d)", base, status)
	}
	return fmt.Errorf("%w (status %d): %s", base, status, body)
}

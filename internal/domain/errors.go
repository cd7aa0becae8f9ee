package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuth            = errors.New("not logged in")
	ErrAuthExpired     = errors.New("session expired")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrNoSeatSelected  = fmt.Errorf("%w: no seat selected", ErrValidation)
	ErrCabinMismatch   = errors.New("seat is outside the purchased cabin")
	ErrSeatTaken       = errors.New("seat is already taken")
	ErrInvalidState    = errors.New("invalid order state")
	ErrRequestInFlight = errors.New("request already in progress")
	ErrStaleResponse   = errors.New("response superseded by a newer request")
)

// HTTPError is a non-2xx backend answer. Body is the raw response text.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Body
}

// AuthExpiredError is returned after a 401; the session has already been
// cleared and LoginRoute names where the user must sign in again.
type AuthExpiredError struct {
	LoginRoute string
	Body       string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("%s: redirect to %s", ErrAuthExpired, e.LoginRoute)
}

func (e *AuthExpiredError) Unwrap() error {
	return ErrAuthExpired
}

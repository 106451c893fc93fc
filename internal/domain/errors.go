package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// NetworkError marks a transport-level failure against the upstream HR API:
// connection refused, DNS failure, or the request timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError carries a non-2xx upstream response. Detail is the
// server-supplied message when one could be decoded from the body.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Detail)
}

// ValidationError rejects client input before any network call is made.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// IsRetryable reports whether a failed upstream call may be retried:
// network failures and 429/5xx responses qualify, other 4xx never do.
func IsRetryable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status == 429 || (se.Status >= 500 && se.Status <= 599)
	}
	return false
}

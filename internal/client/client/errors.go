package client

import "errors"

var (
	ErrUnavailable   = errors.New("server unavailable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrInvalid       = errors.New("invalid input")
	ErrNotConfigured = errors.New("not configured")
)

// statusError keeps the server's message while matching a sentinel.
type statusError struct {
	kind error
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func (e *statusError) Unwrap() error { return e.kind }

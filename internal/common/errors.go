// Package common defines shared constants and sentinel errors used across
// client and server layers of GophVote. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorNotConfigured = errors.New("not configured")

	// Validation errors. Field-specific failures wrap ErrorValidation.
	ErrorValidation = errors.New("validation error")

	// Authorization errors. Both concrete cases wrap ErrorForbidden.
	ErrorForbidden = errors.New("forbidden")
	ErrorOwnerVote = fmt.Errorf("%w: owners cannot vote on their own proposal", ErrorForbidden)
	ErrorNotOwner  = fmt.Errorf("%w: only the owner can modify this proposal", ErrorForbidden)

	// Voting errors.
	ErrorAlreadyVoted = errors.New("already voted")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

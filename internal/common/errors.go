// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorValidation = errors.New("validation error")

	// Authentication failures.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")

	// Account state conflicts.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrEmailAlreadyVerified   = errors.New("email already verified")
	ErrPhoneLimitExceeded     = errors.New("phone limit exceeded")
	ErrTokenOutstanding       = errors.New("token already issued")

	// Ephemeral token lifecycle errors.
	ErrEphemeralTokenNotFound = errors.New("token not found")
	ErrEphemeralTokenExpired  = errors.New("token expired")
)

// TokenOutstandingError reports that a live ephemeral token of the same kind
// already exists for the user, and how long it remains valid.
type TokenOutstandingError struct {
	Kind      string
	Remaining time.Duration
}

func (e *TokenOutstandingError) Error() string {
	return fmt.Sprintf("%s token already issued, retry in %d minutes", e.Kind, e.RemainingMinutes())
}

// RemainingMinutes is the remaining lifetime in whole minutes, rounded
// down. A token in its last minute reports 0.
func (e *TokenOutstandingError) RemainingMinutes() int {
	return int(e.Remaining / time.Minute)
}

func (e *TokenOutstandingError) Is(target error) bool {
	return target == ErrTokenOutstanding
}

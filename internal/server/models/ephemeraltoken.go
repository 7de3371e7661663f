package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// TokenKind separates verification tokens from password reset tokens.
type TokenKind string

const (
	TokenKindVerification TokenKind = "verification"
	TokenKindReset        TokenKind = "reset"
)

// TTL returns the fixed lifetime of tokens of this kind.
func (k TokenKind) TTL() (time.Duration, error) {
	switch k {
	case TokenKindVerification:
		return common.VerificationTokenTTL, nil
	case TokenKindReset:
		return common.ResetTokenTTL, nil
	}
	return 0, fmt.Errorf("unknown token kind %q", string(k))
}

// EphemeralToken is a single-use opaque value owned by a user.
type EphemeralToken struct {
	UserID    string
	Kind      TokenKind
	Value     string
	ExpiresAt time.Time
}

// Live reports whether the token can still be redeemed at now.
func (t *EphemeralToken) Live(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

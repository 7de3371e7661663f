package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RevocationChecker answers whether a refresh token was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Validator checks signed tokens. Besides the revocation lookup it is a
// pure function of the token, the clock and the key.
type Validator struct {
	key     []byte
	now     func() time.Time
	revoked RevocationChecker
}

func NewValidator(secretKey []byte, revoked RevocationChecker) *Validator {
	return &Validator{key: secretKey, now: time.Now, revoked: revoked}
}

// WithClock replaces the time source. Meant for tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Parse runs every check except revocation, in this order: presence,
// signature and structure, expiry, type. An expiry equal to the current
// instant counts as expired.
func (v *Validator) Parse(tokenString string, expected TokenType) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fail(CodeInvalidToken, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fail(CodeInvalidToken, errors.New("missing sub or exp claim"))
	}

	if !v.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	if claims.Type != expected {
		return nil, fail(CodeWrongType, fmt.Errorf("got %q, want %q", claims.Type, expected))
	}

	return claims, nil
}

// Validate is Parse followed, for refresh tokens, by the revocation lookup.
// A failed lookup is returned as a plain error, not a Failure.
func (v *Validator) Validate(ctx context.Context, tokenString string, expected TokenType) (*Principal, error) {
	claims, err := v.Parse(tokenString, expected)
	if err != nil {
		return nil, err
	}

	if expected == TokenTypeRefresh && v.revoked != nil {
		revoked, err := v.revoked.IsRevoked(ctx, tokenString)
		if err != nil {
			return nil, fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	authorities := claims.Authorities
	if expected == TokenTypeRefresh || authorities == nil {
		authorities = []string{}
	}

	return &Principal{Identity: claims.Subject, Authorities: authorities}, nil
}

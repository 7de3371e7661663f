package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token is a signed token together with its lifetime, which the HTTP layer
// turns into cookie attributes.
type Token struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Issuer signs access and refresh tokens with HS256. It holds no mutable
// state and is safe for concurrent use.
type Issuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secretKey []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		key:        secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Meant for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) IssueAccessToken(identity string, authorities []string) (Token, error) {
	if authorities == nil {
		authorities = []string{}
	}
	return i.issue(identity, authorities, TokenTypeAccess, i.accessTTL)
}

func (i *Issuer) IssueRefreshToken(identity string) (Token, error) {
	return i.issue(identity, nil, TokenTypeRefresh, i.refreshTTL)
}

func (i *Issuer) issue(identity string, authorities []string, typ TokenType, ttl time.Duration) (Token, error) {
	if identity == "" {
		return Token{}, errors.New("empty identity")
	}

	exp := jwt.NewNumericDate(i.now().Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
		Authorities: authorities,
		Type:        typ,
	})

	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: tokenString, ExpiresAt: exp.Time, TTL: ttl}, nil
}

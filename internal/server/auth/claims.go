// Package auth mints and validates the signed access and refresh tokens.
package auth

import "github.com/golang-jwt/jwt/v5"

// TokenType is carried in the "type" claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the payload of both token types. Access tokens carry
// authorities; refresh tokens leave them out.
type Claims struct {
	jwt.RegisteredClaims
	Authorities []string  `json:"authorities,omitempty"`
	Type        TokenType `json:"type"`
}

// Principal is the identity derived from a valid token.
type Principal struct {
	Identity    string
	Authorities []string
}

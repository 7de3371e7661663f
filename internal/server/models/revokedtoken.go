package models

import "time"

// RevokedToken is a refresh token rejected until ExpiresAt, after which the
// token would fail validation anyway. Hash is the SHA-256 of the token string.
type RevokedToken struct {
	Hash      string
	ExpiresAt time.Time
}

// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

import "time"

// Cookie names carrying the signed tokens between the service and its callers.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// Fixed account policy values. They are not configurable.
const (
	VerificationTokenTTL = 15 * time.Minute
	ResetTokenTTL        = 60 * time.Minute
	MaxPhonesPerUser     = 3
)

// DefaultRole is granted to every newly registered user.
const DefaultRole = "CLIENT"

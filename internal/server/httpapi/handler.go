// Package httpapi exposes the account flows over HTTP with gin. Signed
// tokens travel in HTTP-only cookies.
package httpapi

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// AuthService is the subset of services.AuthService the handlers call.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Verify(ctx context.Context, token string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Principal, auth.Token, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Me(ctx context.Context, identity string) (*models.User, error)
}

// PhoneService is the subset of services.PhoneService the handlers call.
type PhoneService interface {
	List(ctx context.Context, identity string) ([]*models.Phone, error)
	Get(ctx context.Context, identity, phoneID string) (*models.Phone, error)
	Add(ctx context.Context, identity string, in services.PhoneInput) (*models.Phone, error)
	Delete(ctx context.Context, identity, phoneID string) error
}

// AccessValidator checks access tokens for protected routes.
type AccessValidator interface {
	Validate(ctx context.Context, tokenString string, expected auth.TokenType) (*auth.Principal, error)
}

// Pinger reports storage readiness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of every route.
type Handler struct {
	auth         AuthService
	phones       PhoneService
	validator    AccessValidator
	limiter      RateLimiter
	health       Pinger
	logger       logging.Logger
	cookieSecure bool
	proxies      []string
}

// Options configures NewHandler. Limiter and Health may be nil.
// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For is
// believed; with none, the client IP is the peer address.
type Options struct {
	Auth           AuthService
	Phones         PhoneService
	Validator      AccessValidator
	Limiter        RateLimiter
	Health         Pinger
	Logger         logging.Logger
	CookieSecure   bool
	TrustedProxies []string
}

func NewHandler(o Options) *Handler {
	return &Handler{
		auth:         o.Auth,
		phones:       o.Phones,
		validator:    o.Validator,
		limiter:      o.Limiter,
		health:       o.Health,
		logger:       o.Logger.With("module", "http_api"),
		cookieSecure: o.CookieSecure,
		proxies:      o.TrustedProxies,
	}
}

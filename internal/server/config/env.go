package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config for environment overrides. Every field is a
// pointer so unset variables leave the lower layers untouched.
type envConfig struct {
	HTTPAddr                     *string        `env:"HTTP_ADDR"`
	GRPCHealthAddr               *string        `env:"GRPC_HEALTH_ADDR"`
	StorageBackend               *string        `env:"STORAGE"`
	DatabaseDSN                  *string        `env:"DATABASE_DSN"`
	SecretKey                    *string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  *time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration *time.Duration `env:"REFRESH_TOKEN_TTL"`
	RevocationBackend            *string        `env:"REVOCATION"`
	RedisAddr                    *string        `env:"REDIS_ADDR"`
	RedisPassword                *string        `env:"REDIS_PASSWORD"`
	RedisDB                      *int           `env:"REDIS_DB"`
	RateLimitRequests            *int           `env:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow              *time.Duration `env:"RATE_LIMIT_WINDOW"`
	MailBackend                  *string        `env:"MAIL"`
	MailFrom                     *string        `env:"MAIL_FROM"`
	PublicBaseURL                *string        `env:"PUBLIC_BASE_URL"`
	S3RootUser                   *string        `env:"S3_ROOT_USER"`
	S3RootPassword               *string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket                     *string        `env:"S3_BUCKET"`
	S3Region                     *string        `env:"S3_REGION"`
	S3BaseEndpoint               *string        `env:"S3_BASE_ENDPOINT"`
	PhoneDefaultRegion           *string        `env:"PHONE_REGION"`
	CookieSecure                 *bool          `env:"COOKIE_SECURE"`
	AllowOrigins                 []string       `env:"ALLOW_ORIGINS" envSeparator:","`
	TrustedProxies               []string       `env:"TRUSTED_PROXIES" envSeparator:","`
	LogFormat                    *string        `env:"LOG_FORMAT"`
	LogLevel                     *string        `env:"LOG_LEVEL"`
}

const envPrefix = "GOPHAUTH_"

// parseEnv overlays GOPHAUTH_* environment variables onto config.
func parseEnv(config *Config) error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&config.HTTPAddr, e.HTTPAddr)
	setString(&config.GRPCHealthAddr, e.GRPCHealthAddr)
	setString(&config.StorageBackend, e.StorageBackend)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, e.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, e.RefreshTokenValidityDuration)
	setString(&config.RevocationBackend, e.RevocationBackend)
	setString(&config.RedisAddr, e.RedisAddr)
	setString(&config.RedisPassword, e.RedisPassword)
	setInt(&config.RedisDB, e.RedisDB)
	setInt(&config.RateLimitRequests, e.RateLimitRequests)
	setDuration(&config.RateLimitWindow, e.RateLimitWindow)
	setString(&config.MailBackend, e.MailBackend)
	setString(&config.MailFrom, e.MailFrom)
	setString(&config.PublicBaseURL, e.PublicBaseURL)
	setString(&config.S3RootUser, e.S3RootUser)
	setString(&config.S3RootPassword, e.S3RootPassword)
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3Region, e.S3Region)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)
	setString(&config.PhoneDefaultRegion, e.PhoneDefaultRegion)
	if e.CookieSecure != nil {
		config.CookieSecure = *e.CookieSecure
	}
	if len(e.AllowOrigins) > 0 {
		config.AllowOrigins = e.AllowOrigins
	}
	if len(e.TrustedProxies) > 0 {
		config.TrustedProxies = e.TrustedProxies
	}
	setString(&config.LogFormat, e.LogFormat)
	setString(&config.LogLevel, e.LogLevel)
	return nil
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

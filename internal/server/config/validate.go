package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MinSecretKeyLength is the shortest accepted HS256 secret, in bytes.
const MinSecretKeyLength = 32

// requiredIf applies validation.Required only when set.
type requiredIf bool

func (r requiredIf) Validate(value interface{}) error {
	if !r {
		return nil
	}
	return validation.Required.Validate(value)
}

// Validate checks the merged configuration. The returned error is a
// validation.Errors keyed by field name.
func (c *Config) Validate() error {
	needsDB := c.StorageBackend == StoragePostgres
	needsRedis := c.RevocationBackend == RevocationRedis
	needsS3 := c.MailBackend == MailS3

	return validation.ValidateStruct(c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.GRPCHealthAddr, validation.Required),
		validation.Field(&c.StorageBackend, validation.Required, validation.In(StoragePostgres, StorageMemory)),
		validation.Field(&c.DatabaseDSN, requiredIf(needsDB)),
		validation.Field(&c.SecretKey, validation.Required, validation.Length(MinSecretKeyLength, 0)),
		validation.Field(&c.AccessTokenValidityDuration, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RefreshTokenValidityDuration, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.RevocationBackend, validation.Required, validation.In(RevocationMemory, RevocationRedis, RevocationPostgres)),
		validation.Field(&c.RedisAddr, requiredIf(needsRedis)),
		validation.Field(&c.RateLimitRequests, validation.Required, validation.Min(1)),
		validation.Field(&c.RateLimitWindow, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MailBackend, validation.Required, validation.In(MailLog, MailS3)),
		validation.Field(&c.MailFrom, validation.Required, is.Email),
		validation.Field(&c.PublicBaseURL, validation.Required, is.URL),
		validation.Field(&c.S3Bucket, requiredIf(needsS3)),
		validation.Field(&c.S3Region, requiredIf(needsS3)),
		validation.Field(&c.PhoneDefaultRegion, validation.Required, validation.Length(2, 2)),
		validation.Field(&c.LogFormat, validation.In("json", "text", "console")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

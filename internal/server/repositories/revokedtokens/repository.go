package revokedtokens

import (
	"context"
	"time"
)

// Repository keeps hashes of revoked refresh tokens until they would have
// expired on their own.
type Repository interface {
	Create(ctx context.Context, tokenHash string, expiresAt time.Time) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Package revocation tracks refresh tokens invalidated by logout.
//
// Tokens are keyed by their SHA-256 so the raw bearer value never reaches
// shared storage. Entries are needed only until the token's own expiry.
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Store is the revocation set. Revoke is idempotent, and a Revoke that has
// returned is observed by every later IsRevoked.
type Store interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Sweeper is implemented by stores that need explicit pruning.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RunSweeper prunes s every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				logger.Warn(ctx, "revocation sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "revocation sweep", "removed", n)
			}
		}
	}
}

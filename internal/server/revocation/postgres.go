package revocation

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// RepositoryStore persists revocations through the revoked_tokens table and
// survives restarts.
type RepositoryStore struct {
	rm  repomanager.RepositoryManager
	now func() time.Time
}

func NewRepositoryStore(rm repomanager.RepositoryManager) *RepositoryStore {
	return &RepositoryStore{rm: rm, now: time.Now}
}

func (s *RepositoryStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return s.rm.RevokedTokens(s.rm.DB()).Create(ctx, hashToken(token), expiresAt)
}

func (s *RepositoryStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.rm.RevokedTokens(s.rm.DB()).Exists(ctx, hashToken(token))
}

func (s *RepositoryStore) Sweep(ctx context.Context) (int64, error) {
	return s.rm.RevokedTokens(s.rm.DB()).DeleteExpired(ctx, s.now())
}

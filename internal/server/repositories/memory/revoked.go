package memory

import (
	"context"
	"time"
)

type revokedRepo struct {
	m *Manager
}

func (r *revokedRepo) Create(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.revoked[tokenHash]; !ok {
		r.m.revoked[tokenHash] = expiresAt
	}
	return nil
}

func (r *revokedRepo) Exists(ctx context.Context, tokenHash string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	_, ok := r.m.revoked[tokenHash]
	return ok, nil
}

func (r *revokedRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var n int64
	for h, exp := range r.m.revoked {
		if !now.Before(exp) {
			delete(r.m.revoked, h)
			n++
		}
	}
	return n, nil
}

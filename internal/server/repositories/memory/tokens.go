package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type tokenRepo struct {
	m *Manager
}

func (r *tokenRepo) Issue(ctx context.Context, t *models.EphemeralToken, now time.Time) (bool, *models.EphemeralToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	key := tokenKey{userID: t.UserID, kind: t.Kind}
	if existing, ok := r.m.tokens[key]; ok && existing.Live(now) {
		c := *existing
		return false, &c, nil
	}

	c := *t
	r.m.tokens[key] = &c
	return true, nil, nil
}

func (r *tokenRepo) Consume(ctx context.Context, kind models.TokenKind, value string, now time.Time) (*models.EphemeralToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	key, t, ok := r.lookup(kind, value)
	if !ok {
		return nil, common.ErrEphemeralTokenNotFound
	}
	if !t.Live(now) {
		return nil, common.ErrEphemeralTokenExpired
	}

	delete(r.m.tokens, key)
	c := *t
	return &c, nil
}

func (r *tokenRepo) FindByValue(ctx context.Context, kind models.TokenKind, value string) (*models.EphemeralToken, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	_, t, ok := r.lookup(kind, value)
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

// lookup scans the table; it holds at most two tokens per user.
func (r *tokenRepo) lookup(kind models.TokenKind, value string) (tokenKey, *models.EphemeralToken, bool) {
	for key, t := range r.m.tokens {
		if key.kind == kind && t.Value == value {
			return key, t, true
		}
	}
	return tokenKey{}, nil, false
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RedeemFunc mutates the token owner inside the redeem transaction. The
// user is saved after it returns.
type RedeemFunc func(ctx context.Context, tx dbx.DBTX, user *models.User) error

// EphemeralTokenManager issues and redeems verification and password reset
// tokens. A user holds at most one live token per kind.
type EphemeralTokenManager struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	newValue    func() string
}

func NewEphemeralTokenManager(m repomanager.RepositoryManager) *EphemeralTokenManager {
	return &EphemeralTokenManager{
		repomanager: m,
		now:         time.Now,
		newValue:    uuid.NewString,
	}
}

// Issue mints a token of kind for user on db. If the user already holds a
// live one, nothing is minted and a *common.TokenOutstandingError carrying
// the remaining lifetime is returned.
func (m *EphemeralTokenManager) Issue(ctx context.Context, db dbx.DBTX, kind models.TokenKind, user *models.User) (*models.EphemeralToken, error) {
	ttl, err := kind.TTL()
	if err != nil {
		return nil, err
	}

	now := m.now()
	token := &models.EphemeralToken{
		UserID:    user.ID,
		Kind:      kind,
		Value:     m.newValue(),
		ExpiresAt: now.Add(ttl),
	}

	issued, live, err := m.repomanager.EphemeralTokens(db).Issue(ctx, token, now)
	if err != nil {
		return nil, fmt.Errorf("error issuing %s token: %w", kind, err)
	}
	if !issued {
		return nil, &common.TokenOutstandingError{Kind: string(kind), Remaining: live.ExpiresAt.Sub(now)}
	}

	return token, nil
}

// Redeem consumes the token and applies fn to its owner in one transaction.
// Unknown or already used values fail with common.ErrEphemeralTokenNotFound,
// expired ones with common.ErrEphemeralTokenExpired.
func (m *EphemeralTokenManager) Redeem(ctx context.Context, kind models.TokenKind, value string, fn RedeemFunc) (*models.User, error) {
	if value == "" {
		return nil, common.ErrEphemeralTokenNotFound
	}

	var user *models.User
	err := m.repomanager.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := m.repomanager.EphemeralTokens(tx).Consume(ctx, kind, value, m.now())
		if err != nil {
			return err
		}

		usersRepo := m.repomanager.Users(tx)
		user, err = usersRepo.FindByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("error loading token owner: %w", err)
		}

		if err := fn(ctx, tx, user); err != nil {
			return err
		}

		return usersRepo.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// CredentialVerifier checks an email and password against stored accounts.
// It does not issue tokens.
type CredentialVerifier struct {
	repomanager repomanager.RepositoryManager
	hasher      passwords.Hasher
	dummyHash   string
}

// NewCredentialVerifier precomputes a hash that unknown emails are compared
// against, so both failure paths pay for one hash comparison.
func NewCredentialVerifier(m repomanager.RepositoryManager, hasher passwords.Hasher) (*CredentialVerifier, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &CredentialVerifier{repomanager: m, hasher: hasher, dummyHash: dummy}, nil
}

// Verify returns the principal for a matching account. An existing but
// unverified account fails with common.ErrEmailNotVerified before the
// password is looked at. Unknown emails, wrong passwords and disabled
// accounts all fail with common.ErrInvalidCredentials.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*auth.Principal, *models.User, error) {
	user, err := v.repomanager.Users(v.repomanager.DB()).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			v.hasher.Compare(v.dummyHash, password)
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("error searching user: %w", err)
	}

	var account models.Authenticatable = user
	if !account.IsEmailVerified() {
		return nil, nil, common.ErrEmailNotVerified
	}
	if !v.hasher.Compare(account.CredentialHash(), password) || !account.IsEnabled() {
		return nil, nil, common.ErrInvalidCredentials
	}

	return &auth.Principal{Identity: account.Identity(), Authorities: account.Authorities()}, user, nil
}

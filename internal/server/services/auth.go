// Package services contains server-side business logic. This file implements
// AuthService: registration, email verification, login, token refresh,
// logout and password reset.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
)

// Session is the result of a successful login.
type Session struct {
	Principal    *auth.Principal
	AccessToken  auth.Token
	RefreshToken auth.Token
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	LastName string
}

// AuthService wires credential checks, signed tokens, ephemeral tokens and
// mail delivery into the account flows.
type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      passwords.Hasher
	credentials *CredentialVerifier
	tokens      *EphemeralTokenManager
	issuer      *auth.Issuer
	validator   *auth.Validator
	revocations revocation.Store
	mailer      mail.Mailer
	logger      logging.Logger
}

// NewAuthService constructs an AuthService. The validator must consult the
// same revocation store that logout writes to.
func NewAuthService(
	m repomanager.RepositoryManager,
	hasher passwords.Hasher,
	credentials *CredentialVerifier,
	tokens *EphemeralTokenManager,
	issuer *auth.Issuer,
	validator *auth.Validator,
	revocations revocation.Store,
	mailer mail.Mailer,
	logger logging.Logger,
) *AuthService {
	return &AuthService{
		repomanager: m,
		hasher:      hasher,
		credentials: credentials,
		tokens:      tokens,
		issuer:      issuer,
		validator:   validator,
		revocations: revocations,
		mailer:      mailer,
		logger:      logger,
	}
}

// Register creates an enabled but unverified account and mails it a
// verification token. A failed send is logged; the account stays.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var (
		user  *models.User
		token *models.EphemeralToken
	)
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		exists, err := repo.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("error checking email: %w", err)
		}
		if exists {
			return common.ErrEmailAlreadyRegistered
		}

		user, err = repo.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			Name:         strings.TrimSpace(in.Name),
			LastName:     strings.TrimSpace(in.LastName),
			Enabled:      true,
			Roles:        []string{common.DefaultRole},
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrEmailAlreadyRegistered
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		token, err = s.tokens.Issue(ctx, tx, models.TokenKindVerification, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, token.Value); err != nil {
		s.logger.Error(ctx, "verification email not sent", "email", user.Email, "err", err)
	}

	return user, nil
}

// Verify redeems a verification token and marks its owner verified.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	return s.tokens.Redeem(ctx, models.TokenKindVerification, token,
		func(_ context.Context, _ dbx.DBTX, user *models.User) error {
			user.MarkVerified()
			return nil
		})
}

// ResendVerification mails a new verification token unless a live one is
// still outstanding.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return common.ErrEmailAlreadyVerified
	}

	token, err := s.tokens.Issue(ctx, s.repomanager.DB(), models.TokenKindVerification, user)
	if err != nil {
		return err
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, token.Value); err != nil {
		s.logger.Error(ctx, "verification email not sent", "email", user.Email, "err", err)
	}
	return nil
}

// Login verifies credentials and mints an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	principal, _, err := s.credentials.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	access, err := s.issuer.IssueAccessToken(principal.Identity, principal.Authorities)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(principal.Identity)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	return &Session{Principal: principal, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token, including revocation, and mints a new
// access token with the account's current authorities. Accounts that are
// gone, disabled or unverified fail with auth.ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Principal, auth.Token, error) {
	principal, err := s.validator.Validate(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, auth.Token{}, err
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).FindByEmail(ctx, principal.Identity)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, auth.Token{}, &auth.Failure{Code: auth.CodeInvalidToken, Err: err}
		}
		return nil, auth.Token{}, fmt.Errorf("error searching user: %w", err)
	}
	if !user.Enabled || !user.EmailVerified {
		return nil, auth.Token{}, &auth.Failure{Code: auth.CodeInvalidToken, Err: errors.New("account not active")}
	}

	current := &auth.Principal{Identity: user.Identity(), Authorities: user.Authorities()}
	access, err := s.issuer.IssueAccessToken(current.Identity, current.Authorities)
	if err != nil {
		return nil, auth.Token{}, fmt.Errorf("error issuing access token: %w", err)
	}

	return current, access, nil
}

// Logout revokes a refresh token until its own expiry. Already revoked
// tokens are accepted so that logout can be repeated.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.validator.Parse(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return err
	}

	if err := s.revocations.Revoke(ctx, refreshToken, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// ForgotPassword mails a reset token to a verified account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}
	if !user.EmailVerified {
		return common.ErrEmailNotVerified
	}

	token, err := s.tokens.Issue(ctx, s.repomanager.DB(), models.TokenKindReset, user)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, token.Value); err != nil {
		s.logger.Error(ctx, "password reset email not sent", "email", user.Email, "err", err)
	}
	return nil
}

// ResetPassword redeems a reset token and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return common.ErrEphemeralTokenNotFound
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	_, err = s.tokens.Redeem(ctx, models.TokenKindReset, token,
		func(_ context.Context, _ dbx.DBTX, user *models.User) error {
			user.PasswordHash = hash
			return nil
		})
	return err
}

// Me returns the account of an access token holder with its phones.
func (s *AuthService) Me(ctx context.Context, identity string) (*models.User, error) {
	db := s.repomanager.DB()

	user, err := s.findUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	user.Phones, err = s.repomanager.Phones(db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing phones: %w", err)
	}
	return user, nil
}

func (s *AuthService) findUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

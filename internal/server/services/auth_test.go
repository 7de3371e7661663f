package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow_RegisterVerifyLoginLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.auth.Register(ctx, RegisterInput{Email: "a@x.com", Password: "s3cret-pass", Name: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
	assert.True(t, user.Enabled)
	assert.Equal(t, []string{common.DefaultRole}, user.Roles)

	_, err = env.auth.Login(ctx, "a@x.com", "s3cret-pass")
	if !errors.Is(err, common.ErrEmailNotVerified) {
		t.Fatalf("login before verify: want ErrEmailNotVerified, got %v", err)
	}

	verified, err := env.auth.Verify(ctx, env.mailer.lastVerification(t, "a@x.com"))
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	session, err := env.auth.Login(ctx, "a@x.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken.Value)
	assert.NotEmpty(t, session.RefreshToken.Value)
	assert.Equal(t, "a@x.com", session.Principal.Identity)
	assert.Equal(t, []string{common.DefaultRole}, session.Principal.Authorities)

	principal, access, err := env.auth.Refresh(ctx, session.RefreshToken.Value)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", principal.Identity)
	assert.NotEmpty(t, access.Value)

	require.NoError(t, env.auth.Logout(ctx, session.RefreshToken.Value))

	_, _, err = env.auth.Refresh(ctx, session.RefreshToken.Value)
	if !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("refresh after logout: want TOKEN_REVOKED, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "dup@x.com", Password: "password1"})
	require.NoError(t, err)

	_, err = env.auth.Register(ctx, RegisterInput{Email: "  DUP@x.com ", Password: "password2"})
	if !errors.Is(err, common.ErrEmailAlreadyRegistered) {
		t.Fatalf("want ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.mailer.err = errors.New("smtp down")

	_, err := env.auth.Register(ctx, RegisterInput{Email: "m@x.com", Password: "password1"})
	require.NoError(t, err)

	_, err = env.auth.Verify(ctx, env.mailer.lastVerification(t, "m@x.com"))
	require.NoError(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "l@x.com", "right-password")

	for name, tc := range map[string]struct{ email, password string }{
		"unknown email":  {"nobody@x.com", "right-password"},
		"wrong password": {"l@x.com", "wrong-password"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, common.ErrInvalidCredentials) {
				t.Fatalf("want ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLogin_UnverifiedCheckedBeforePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "u@x.com", Password: "right-password"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "u@x.com", "wrong-password")
	if !errors.Is(err, common.ErrEmailNotVerified) {
		t.Fatalf("want ErrEmailNotVerified, got %v", err)
	}
}

func TestVerify_TokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "v@x.com", Password: "password1"})
	require.NoError(t, err)
	token := env.mailer.lastVerification(t, "v@x.com")

	_, err = env.auth.Verify(ctx, token)
	require.NoError(t, err)

	_, err = env.auth.Verify(ctx, token)
	if !errors.Is(err, common.ErrEphemeralTokenNotFound) {
		t.Fatalf("second redeem: want ErrEphemeralTokenNotFound, got %v", err)
	}

	_, err = env.auth.Verify(ctx, "")
	if !errors.Is(err, common.ErrEphemeralTokenNotFound) {
		t.Fatalf("empty token: want ErrEphemeralTokenNotFound, got %v", err)
	}
}

func TestVerify_ExpiredAtBoundary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "e@x.com", Password: "password1"})
	require.NoError(t, err)

	env.clock.Advance(common.VerificationTokenTTL)

	_, err = env.auth.Verify(ctx, env.mailer.lastVerification(t, "e@x.com"))
	if !errors.Is(err, common.ErrEphemeralTokenExpired) {
		t.Fatalf("want ErrEphemeralTokenExpired, got %v", err)
	}
}

func TestResendVerification_RefusedWhileLive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "r@x.com", Password: "password1"})
	require.NoError(t, err)
	first := env.mailer.lastVerification(t, "r@x.com")

	env.clock.Advance(5*time.Minute + time.Second)

	err = env.auth.ResendVerification(ctx, "r@x.com")
	var outstanding *common.TokenOutstandingError
	if !errors.As(err, &outstanding) {
		t.Fatalf("want TokenOutstandingError, got %v", err)
	}
	assert.True(t, errors.Is(err, common.ErrTokenOutstanding))
	assert.Equal(t, 9, outstanding.RemainingMinutes(), "9m59s left")
	assert.Len(t, env.mailer.verification["r@x.com"], 1)

	_, err = env.auth.Verify(ctx, first)
	require.NoError(t, err, "original token must stay redeemable")
}

func TestResendVerification_AfterExpiryIssuesNewValue(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "n@x.com", Password: "password1"})
	require.NoError(t, err)
	first := env.mailer.lastVerification(t, "n@x.com")

	env.clock.Advance(common.VerificationTokenTTL)
	require.NoError(t, env.auth.ResendVerification(ctx, "n@x.com"))

	second := env.mailer.lastVerification(t, "n@x.com")
	assert.NotEqual(t, first, second)

	_, err = env.auth.Verify(ctx, second)
	require.NoError(t, err)
}

func TestResendVerification_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "done@x.com", "password1")

	if err := env.auth.ResendVerification(ctx, "done@x.com"); !errors.Is(err, common.ErrEmailAlreadyVerified) {
		t.Fatalf("want ErrEmailAlreadyVerified, got %v", err)
	}
	if err := env.auth.ResendVerification(ctx, "ghost@x.com"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestResendVerification_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "c@x.com", Password: "password1"})
	require.NoError(t, err)
	env.clock.Advance(common.VerificationTokenTTL)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		refused int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.auth.ResendVerification(ctx, "c@x.com")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, common.ErrTokenOutstanding):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, refused)
}

func TestForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "p@x.com", "old-password")

	require.NoError(t, env.auth.ForgotPassword(ctx, "p@x.com"))

	err := env.auth.ForgotPassword(ctx, "p@x.com")
	if !errors.Is(err, common.ErrTokenOutstanding) {
		t.Fatalf("second forgot: want ErrTokenOutstanding, got %v", err)
	}
	var outstanding *common.TokenOutstandingError
	require.True(t, errors.As(err, &outstanding))
	assert.Equal(t, 60, outstanding.RemainingMinutes())

	env.clock.Advance(30 * time.Second)
	err = env.auth.ForgotPassword(ctx, "p@x.com")
	require.True(t, errors.As(err, &outstanding))
	assert.Equal(t, 59, outstanding.RemainingMinutes(), "59m30s left")

	token := env.mailer.lastReset(t, "p@x.com")
	require.NoError(t, env.auth.ResetPassword(ctx, token, "new-password"))

	if _, err := env.auth.Login(ctx, "p@x.com", "old-password"); !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("old password: want ErrInvalidCredentials, got %v", err)
	}
	_, err = env.auth.Login(ctx, "p@x.com", "new-password")
	require.NoError(t, err)

	if err := env.auth.ResetPassword(ctx, token, "third-password"); !errors.Is(err, common.ErrEphemeralTokenNotFound) {
		t.Fatalf("reused reset token: want ErrEphemeralTokenNotFound, got %v", err)
	}
}

func TestForgotPassword_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.auth.Register(ctx, RegisterInput{Email: "unv@x.com", Password: "password1"})
	require.NoError(t, err)

	if err := env.auth.ForgotPassword(ctx, "unv@x.com"); !errors.Is(err, common.ErrEmailNotVerified) {
		t.Fatalf("want ErrEmailNotVerified, got %v", err)
	}
	if err := env.auth.ForgotPassword(ctx, "ghost@x.com"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestResetPassword_Expired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "x@x.com", "old-password")

	require.NoError(t, env.auth.ForgotPassword(ctx, "x@x.com"))
	env.clock.Advance(common.ResetTokenTTL + time.Second)

	err := env.auth.ResetPassword(ctx, env.mailer.lastReset(t, "x@x.com"), "new-password")
	if !errors.Is(err, common.ErrEphemeralTokenExpired) {
		t.Fatalf("want ErrEphemeralTokenExpired, got %v", err)
	}
}

func TestRefresh_RejectsInactiveAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "d@x.com", "password1")

	session, err := env.auth.Login(ctx, "d@x.com", "password1")
	require.NoError(t, err)

	users := env.rm.Users(env.rm.DB())
	u, err := users.FindByEmail(ctx, "d@x.com")
	require.NoError(t, err)
	u.Enabled = false
	require.NoError(t, users.Save(ctx, u))

	_, _, err = env.auth.Refresh(ctx, session.RefreshToken.Value)
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("want INVALID_TOKEN, got %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "w@x.com", "password1")

	session, err := env.auth.Login(ctx, "w@x.com", "password1")
	require.NoError(t, err)

	_, _, err = env.auth.Refresh(ctx, session.AccessToken.Value)
	if !errors.Is(err, auth.ErrWrongType) {
		t.Fatalf("want WRONG_TYPE, got %v", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "o@x.com", "password1")

	session, err := env.auth.Login(ctx, "o@x.com", "password1")
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, session.RefreshToken.Value))
	require.NoError(t, env.auth.Logout(ctx, session.RefreshToken.Value))
	assert.Equal(t, 1, env.revoked.Len())

	if err := env.auth.Logout(ctx, ""); !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("want NO_TOKEN, got %v", err)
	}
}

func TestLogoutRacingRefresh_NeverSucceedsAfterLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "race@x.com", "password1")

	for i := 0; i < 20; i++ {
		session, err := env.auth.Login(ctx, "race@x.com", "password1")
		require.NoError(t, err)
		refresh := session.RefreshToken.Value

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := env.auth.Refresh(ctx, refresh)
			if err != nil && !errors.Is(err, auth.ErrTokenRevoked) {
				t.Errorf("refresh: unexpected error %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := env.auth.Logout(ctx, refresh); err != nil {
				t.Errorf("logout: %v", err)
			}
		}()
		wg.Wait()

		_, _, err = env.auth.Refresh(ctx, refresh)
		if !errors.Is(err, auth.ErrTokenRevoked) {
			t.Fatalf("refresh after completed logout: want TOKEN_REVOKED, got %v", err)
		}
	}
}

func TestMe_ReturnsProfileWithPhones(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.registerVerified(t, "me@x.com", "password1")

	_, err := env.phones.Add(ctx, "me@x.com", PhoneInput{Number: "650-253-0000", Type: models.PhoneTypeMobile, IsPrimary: true})
	require.NoError(t, err)

	u, err := env.auth.Me(ctx, "me@x.com")
	require.NoError(t, err)
	assert.Equal(t, "A", u.Name)
	require.Len(t, u.Phones, 1)
	assert.Equal(t, "+16502530000", u.Phones[0].Number)

	if _, err := env.auth.Me(ctx, "ghost@x.com"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMailer struct {
	mu           sync.Mutex
	verification map[string][]string
	reset        map[string][]string
	err          error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verification: map[string][]string{}, reset: map[string][]string{}}
}

func (f *fakeMailer) SendVerificationEmail(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verification[to] = append(f.verification[to], token)
	return f.err
}

func (f *fakeMailer) SendPasswordResetEmail(_ context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset[to] = append(f.reset[to], token)
	return f.err
}

func (f *fakeMailer) lastVerification(t *testing.T, to string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := f.verification[to]
	if len(tokens) == 0 {
		t.Fatalf("no verification mail for %s", to)
	}
	return tokens[len(tokens)-1]
}

func (f *fakeMailer) lastReset(t *testing.T, to string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens := f.reset[to]
	if len(tokens) == 0 {
		t.Fatalf("no reset mail for %s", to)
	}
	return tokens[len(tokens)-1]
}

type testEnv struct {
	rm      *memory.Manager
	clock   *clock
	mailer  *fakeMailer
	revoked *revocation.MemoryStore
	tokens  *EphemeralTokenManager
	auth    *AuthService
	phones  *PhoneService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rm := memory.NewManager()
	clk := &clock{now: time.Now()}
	hasher := passwords.NewBcryptHasher(4)

	verifier, err := NewCredentialVerifier(rm, hasher)
	if err != nil {
		t.Fatalf("NewCredentialVerifier: %v", err)
	}

	tokens := NewEphemeralTokenManager(rm)
	tokens.now = clk.Now

	revoked := revocation.NewMemoryStore()
	issuer := auth.NewIssuer(testKey, 15*time.Minute, 24*time.Hour).WithClock(clk.Now)
	validator := auth.NewValidator(testKey, revoked).WithClock(clk.Now)
	mailer := newFakeMailer()

	return &testEnv{
		rm:      rm,
		clock:   clk,
		mailer:  mailer,
		revoked: revoked,
		tokens:  tokens,
		auth:    NewAuthService(rm, hasher, verifier, tokens, issuer, validator, revoked, mailer, nopLogger{}),
		phones:  NewPhoneService(rm, "US"),
	}
}

// registerVerified registers email and redeems its verification token.
func (e *testEnv) registerVerified(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.auth.Register(ctx, RegisterInput{Email: email, Password: password, Name: "A", LastName: "B"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := e.auth.Verify(ctx, e.mailer.lastVerification(t, email)); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

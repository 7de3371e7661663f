// Package memory is an in-process RepositoryManager used for local
// development (-m memory) and for service-level tests. State is lost when
// the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/ephemeraltokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/phones"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type tokenKey struct {
	userID string
	kind   models.TokenKind
}

// Manager owns all in-memory tables. WithinTx runs callbacks one at a time,
// which gives the same per-user serialization the Postgres row locks give.
// Callbacks must not call WithinTx again.
type Manager struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	users      map[string]*models.User
	byEmail    map[string]string
	phones     map[string]*models.Phone
	phoneOrder []string
	tokens     map[tokenKey]*models.EphemeralToken
	revoked    map[string]time.Time
}

func NewManager() *Manager {
	return &Manager{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
		phones:  make(map[string]*models.Phone),
		tokens:  make(map[tokenKey]*models.EphemeralToken),
		revoked: make(map[string]time.Time),
	}
}

func (m *Manager) RunMigrations(context.Context) error { return nil }
func (m *Manager) Ping(context.Context) error          { return nil }
func (m *Manager) Close() error                        { return nil }

// DB returns nil; the in-memory repositories ignore their handle.
func (m *Manager) DB() dbx.DBTX { return nil }

func (m *Manager) WithinTx(ctx context.Context, fn dbx.TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *Manager) Users(dbx.DBTX) users.Repository                     { return &userRepo{m: m} }
func (m *Manager) Phones(dbx.DBTX) phones.Repository                   { return &phoneRepo{m: m} }
func (m *Manager) EphemeralTokens(dbx.DBTX) ephemeraltokens.Repository { return &tokenRepo{m: m} }
func (m *Manager) RevokedTokens(dbx.DBTX) revokedtokens.Repository     { return &revokedRepo{m: m} }

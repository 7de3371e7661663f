package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/ephemeraltokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/phones"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the plain connection
// (DB) or a transactional handle passed to a WithinTx callback.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	DB() dbx.DBTX
	WithinTx(ctx context.Context, fn dbx.TxFunc) error

	Users(db dbx.DBTX) users.Repository
	Phones(db dbx.DBTX) phones.Repository
	EphemeralTokens(db dbx.DBTX) ephemeraltokens.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}

package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create is idempotent: revoking the same token twice keeps the first row.
func (r *PostgresRepository) Create(ctx context.Context, tokenHash string, expiresAt time.Time) error {

	query :=
		`INSERT INTO revoked_tokens (token_hash, expires_at)
         VALUES ($1, $2)
		 ON CONFLICT (token_hash) DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, tokenHash string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

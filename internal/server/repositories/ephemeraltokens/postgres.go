package ephemeraltokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Issue relies on the (user_id, kind) primary key: the upsert only replaces
// a row whose expiry has passed, so concurrent issuers serialize on the row
// lock and at most one of them sees RETURNING produce a row.
func (r *PostgresRepository) Issue(ctx context.Context, t *models.EphemeralToken, now time.Time) (bool, *models.EphemeralToken, error) {
	query :=
		`INSERT INTO ephemeral_tokens (user_id, kind, token, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, kind) DO UPDATE
		 SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at
		 WHERE ephemeral_tokens.expires_at <= $5
		 RETURNING token
		 `

	var stored string
	err := r.db.QueryRowContext(ctx, query, t.UserID, string(t.Kind), t.Value, t.ExpiresAt, now).Scan(&stored)
	if err == nil {
		return true, nil, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, nil, fmt.Errorf("db error: %w", err)
	}

	live := &models.EphemeralToken{UserID: t.UserID, Kind: t.Kind}
	err = r.db.QueryRowContext(ctx,
		`SELECT token, expires_at FROM ephemeral_tokens WHERE user_id = $1 AND kind = $2`,
		t.UserID, string(t.Kind)).Scan(&live.Value, &live.ExpiresAt)
	if err != nil {
		return false, nil, fmt.Errorf("db error: %w", err)
	}

	return false, live, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, kind models.TokenKind, value string, now time.Time) (*models.EphemeralToken, error) {
	query :=
		`DELETE FROM ephemeral_tokens
		 WHERE token = $1 AND kind = $2 AND expires_at > $3
		 RETURNING user_id, expires_at
		 `

	t := &models.EphemeralToken{Kind: kind, Value: value}
	err := r.db.QueryRowContext(ctx, query, value, string(kind), now).Scan(&t.UserID, &t.ExpiresAt)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if _, err := r.FindByValue(ctx, kind, value); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrEphemeralTokenNotFound
		}
		return nil, err
	}
	return nil, common.ErrEphemeralTokenExpired
}

func (r *PostgresRepository) FindByValue(ctx context.Context, kind models.TokenKind, value string) (*models.EphemeralToken, error) {
	query :=
		`SELECT user_id, expires_at FROM ephemeral_tokens
		 WHERE token = $1 AND kind = $2
		 `

	t := &models.EphemeralToken{Kind: kind, Value: value}
	err := r.db.QueryRowContext(ctx, query, value, string(kind)).Scan(&t.UserID, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

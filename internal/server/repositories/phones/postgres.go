package phones

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Phone, error) {
	query :=
		`SELECT id, user_id, phone_number, phone_type, is_primary, created_at
		 FROM user_phones
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Phone, 0, common.MaxPhonesPerUser)
	for rows.Next() {
		p := &models.Phone{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Number, &p.Type, &p.IsPrimary, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, userID, phoneID string) (*models.Phone, error) {
	query :=
		`SELECT id, user_id, phone_number, phone_type, is_primary, created_at
		 FROM user_phones
		 WHERE id = $1 AND user_id = $2
		 `

	p := &models.Phone{}
	err := r.db.QueryRowContext(ctx, query, phoneID, userID).
		Scan(&p.ID, &p.UserID, &p.Number, &p.Type, &p.IsPrimary, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Phone) (*models.Phone, error) {
	query :=
		`INSERT INTO user_phones (user_id, phone_number, phone_type, is_primary)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.UserID, p.Number, string(p.Type), p.IsPrimary).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, phoneID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_phones WHERE id = $1 AND user_id = $2`, phoneID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// ClearPrimary drops the primary flag from every phone of the user except
// exceptID (which may be empty).
func (r *PostgresRepository) ClearPrimary(ctx context.Context, userID, exceptID string) error {
	query :=
		`UPDATE user_phones SET is_primary = FALSE
		 WHERE user_id = $1 AND is_primary AND id::text <> $2
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, exceptID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

package phones

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists phones. Every lookup is scoped by owner so a phone id
// belonging to another user reads as not found.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Phone, error)
	FindByID(ctx context.Context, userID, phoneID string) (*models.Phone, error)
	Create(ctx context.Context, phone *models.Phone) (*models.Phone, error)
	Delete(ctx context.Context, userID, phoneID string) error
	ClearPrimary(ctx context.Context, userID, exceptID string) error
}

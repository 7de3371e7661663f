package ephemeraltokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores at most one token per (user, kind).
type Repository interface {
	// Issue stores t unless the user already holds a token of t.Kind that is
	// live at now. In that case nothing is written and the live token is
	// returned with issued=false. The check and the write are one atomic step.
	Issue(ctx context.Context, t *models.EphemeralToken, now time.Time) (issued bool, live *models.EphemeralToken, err error)

	// Consume removes and returns the token if it is live at now. It fails
	// with common.ErrEphemeralTokenExpired if the value is known but past its
	// expiry and with common.ErrEphemeralTokenNotFound otherwise.
	Consume(ctx context.Context, kind models.TokenKind, value string, now time.Time) (*models.EphemeralToken, error)

	// FindByValue looks a token up without consuming it.
	FindByValue(ctx context.Context, kind models.TokenKind, value string) (*models.EphemeralToken, error)
}

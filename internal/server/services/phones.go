package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/phonenum"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// PhoneInput is a phone as submitted by its owner.
type PhoneInput struct {
	Number    string
	Type      models.PhoneType
	IsPrimary bool
}

// PhoneService manages the phones of the authenticated user. Owners are
// identified by email, the subject of their access token.
type PhoneService struct {
	repomanager   repomanager.RepositoryManager
	defaultRegion string
}

func NewPhoneService(m repomanager.RepositoryManager, defaultRegion string) *PhoneService {
	return &PhoneService{repomanager: m, defaultRegion: defaultRegion}
}

func (s *PhoneService) List(ctx context.Context, identity string) ([]*models.Phone, error) {
	user, err := s.owner(ctx, s.repomanager.DB(), identity)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Phones(s.repomanager.DB()).ListByUser(ctx, user.ID)
}

func (s *PhoneService) Get(ctx context.Context, identity, phoneID string) (*models.Phone, error) {
	user, err := s.owner(ctx, s.repomanager.DB(), identity)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Phones(s.repomanager.DB()).FindByID(ctx, user.ID, phoneID)
}

// Add stores a new phone. The owner row is locked for the whole
// count-then-insert sequence, so concurrent adds cannot pass the limit.
// A primary phone demotes the user's other phones.
func (s *PhoneService) Add(ctx context.Context, identity string, in PhoneInput) (*models.Phone, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown phone type %q", common.ErrorValidation, string(in.Type))
	}
	number, err := phonenum.Normalize(in.Number, s.defaultRegion)
	if err != nil {
		return nil, err
	}

	var created *models.Phone
	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.lockedOwner(ctx, tx, identity)
		if err != nil {
			return err
		}

		phone := &models.Phone{Number: number, Type: in.Type, IsPrimary: in.IsPrimary}
		demoted, err := user.AddPhone(phone)
		if err != nil {
			return err
		}

		phonesRepo := s.repomanager.Phones(tx)
		created, err = phonesRepo.Create(ctx, phone)
		if err != nil {
			return fmt.Errorf("error creating phone: %w", err)
		}

		if len(demoted) > 0 {
			if err := phonesRepo.ClearPrimary(ctx, user.ID, created.ID); err != nil {
				return fmt.Errorf("error demoting phones: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Delete removes one of the user's phones. Deleting the primary phone
// leaves the user without one.
func (s *PhoneService) Delete(ctx context.Context, identity, phoneID string) error {
	return s.repomanager.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.lockedOwner(ctx, tx, identity)
		if err != nil {
			return err
		}

		if _, err := user.RemovePhone(phoneID); err != nil {
			return err
		}

		return s.repomanager.Phones(tx).Delete(ctx, user.ID, phoneID)
	})
}

func (s *PhoneService) owner(ctx context.Context, db dbx.DBTX, identity string) (*models.User, error) {
	user, err := s.repomanager.Users(db).FindByEmail(ctx, normalizeEmail(identity))
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

func (s *PhoneService) lockedOwner(ctx context.Context, tx dbx.DBTX, identity string) (*models.User, error) {
	user, err := s.owner(ctx, tx, identity)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Users(tx).LockByID(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("error locking user: %w", err)
	}

	user.Phones, err = s.repomanager.Phones(tx).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing phones: %w", err)
	}
	return user, nil
}

package memory

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

type phoneRepo struct {
	m *Manager
}

func (r *phoneRepo) ListByUser(ctx context.Context, userID string) ([]*models.Phone, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	result := make([]*models.Phone, 0, common.MaxPhonesPerUser)
	for _, id := range r.m.phoneOrder {
		if p := r.m.phones[id]; p.UserID == userID {
			c := *p
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *phoneRepo) FindByID(ctx context.Context, userID, phoneID string) (*models.Phone, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	p, ok := r.m.phones[phoneID]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r *phoneRepo) Create(ctx context.Context, p *models.Phone) (*models.Phone, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	c := *p
	r.m.phones[p.ID] = &c
	r.m.phoneOrder = append(r.m.phoneOrder, p.ID)
	return p, nil
}

func (r *phoneRepo) Delete(ctx context.Context, userID, phoneID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.phones[phoneID]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.m.phones, phoneID)
	r.m.phoneOrder = slices.DeleteFunc(r.m.phoneOrder, func(id string) bool { return id == phoneID })
	return nil
}

func (r *phoneRepo) ClearPrimary(ctx context.Context, userID, exceptID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for id, p := range r.m.phones {
		if p.UserID == userID && id != exceptID {
			p.IsPrimary = false
		}
	}
	return nil
}

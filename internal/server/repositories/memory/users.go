package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

type userRepo struct {
	m *Manager
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.Phones = nil
	return &c
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Roles = user.Authorities()

	r.m.users[user.ID] = cloneUser(user)
	r.m.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(r.m.users[id]), nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	_, ok := r.m.byEmail[email]
	return ok, nil
}

func (r *userRepo) Save(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}

	user.UpdatedAt = time.Now()
	stored.PasswordHash = user.PasswordHash
	stored.Name = user.Name
	stored.LastName = user.LastName
	stored.Enabled = user.Enabled
	stored.EmailVerified = user.EmailVerified
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

// LockByID only checks existence; WithinTx already serializes writers.
func (r *userRepo) LockByID(ctx context.Context, id string) error {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	if _, ok := r.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

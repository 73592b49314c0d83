// Package memory holds process-local store implementations used when no
// database is configured and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// UserRepository keeps users in a map keyed by email.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
	now     func() time.Time
}

// NewUserRepository returns an empty store.
func NewUserRepository() *UserRepository {
	return &UserRepository{byEmail: make(map[string]*domain.User), now: time.Now}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Exists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return repository.ErrConflict
	}
	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.byEmail[user.Email] = &stored
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.RLock()
	all := make([]domain.User, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		all = append(all, *u)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []domain.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *UserRepository) UpdateByEmail(_ context.Context, email string, update domain.UserUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.IsEmpty() {
		out := *u
		return &out, nil
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	if update.IsVerified != nil {
		u.IsVerified = *update.IsVerified
	}
	u.UpdatedAt = r.now().UTC()
	out := *u
	return &out, nil
}

// Ping always succeeds.
func (r *UserRepository) Ping(context.Context) error {
	return nil
}

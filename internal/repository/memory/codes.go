package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

// CodeRepository keeps one-time codes per email in insertion order.
type CodeRepository struct {
	mu      sync.Mutex
	byEmail map[string][]domain.OneTimeCode
	now     func() time.Time
}

// NewCodeRepository returns an empty store.
func NewCodeRepository() *CodeRepository {
	return &CodeRepository{byEmail: make(map[string][]domain.OneTimeCode), now: time.Now}
}

var _ repository.CodeRepository = (*CodeRepository)(nil)

func (r *CodeRepository) Create(_ context.Context, code *domain.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code.ID = uuid.NewString()
	code.CreatedAt = r.now().UTC()
	r.byEmail[code.Email] = append(r.byEmail[code.Email], *code)
	return nil
}

// GetByEmail returns the most recently created code.
func (r *CodeRepository) GetByEmail(_ context.Context, email string) (*domain.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := r.byEmail[email]
	if len(codes) == 0 {
		return nil, repository.ErrNotFound
	}
	out := codes[len(codes)-1]
	return &out, nil
}

func (r *CodeRepository) DeleteAllByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
	return nil
}

// Count returns how many codes are stored for email.
func (r *CodeRepository) Count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail[email])
}

// DeleteExpired removes codes whose expiry is before the given time.
func (r *CodeRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for email, codes := range r.byEmail {
		kept := codes[:0]
		for _, c := range codes {
			if c.Expired(before) {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(r.byEmail, email)
			continue
		}
		r.byEmail[email] = kept
	}
	return removed, nil
}

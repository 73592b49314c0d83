package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/account-service/internal/repository"
)

// ResetTicketRepository keeps password-reset tickets with an expiry.
type ResetTicketRepository struct {
	mu      sync.Mutex
	tickets map[string]time.Time
	now     func() time.Time
}

// NewResetTicketRepository returns an empty store. A nil clock means time.Now.
func NewResetTicketRepository(now func() time.Time) *ResetTicketRepository {
	if now == nil {
		now = time.Now
	}
	return &ResetTicketRepository{tickets: make(map[string]time.Time), now: now}
}

var _ repository.ResetTicketRepository = (*ResetTicketRepository)(nil)

func (r *ResetTicketRepository) Grant(_ context.Context, email string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[email] = r.now().Add(ttl)
	return nil
}

func (r *ResetTicketRepository) Consume(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.tickets[email]
	if !ok {
		return false, nil
	}
	delete(r.tickets, email)
	return !r.now().After(expiresAt), nil
}

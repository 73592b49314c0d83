package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/account-service/internal/repository"
)

// ResetTicketRepository keeps one key per email; consuming deletes it atomically.
type ResetTicketRepository struct {
	client *redis.Client
}

// NewResetTicketRepository returns a Redis-backed ticket store.
func NewResetTicketRepository(client *redis.Client) *ResetTicketRepository {
	return &ResetTicketRepository{client: client}
}

var _ repository.ResetTicketRepository = (*ResetTicketRepository)(nil)

func (r *ResetTicketRepository) Grant(ctx context.Context, email string, ttl time.Duration) error {
	return r.client.Set(ctx, ticketPrefix+email, time.Now().UTC().Format(time.RFC3339), ttl).Err()
}

func (r *ResetTicketRepository) Consume(ctx context.Context, email string) (bool, error) {
	err := r.client.GetDel(ctx, ticketPrefix+email).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

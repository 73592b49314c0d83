// Package redisstore implements code and reset-ticket stores on Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

const (
	codePrefix   = "otp:"
	ticketPrefix = "reset_ticket:"
)

// CodeRepository stores the codes of an email in a Redis list that expires
// together with its newest code.
type CodeRepository struct {
	client *redis.Client
}

// NewCodeRepository returns a Redis-backed code store.
func NewCodeRepository(client *redis.Client) *CodeRepository {
	return &CodeRepository{client: client}
}

var _ repository.CodeRepository = (*CodeRepository)(nil)

func (r *CodeRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	code.ID = uuid.NewString()
	code.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("encode code: %w", err)
	}

	key := codePrefix + code.Email
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.ExpireAt(ctx, key, code.ExpiresAt)
		return nil
	})
	return err
}

// GetByEmail returns the most recently pushed code.
func (r *CodeRepository) GetByEmail(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	raw, err := r.client.LIndex(ctx, codePrefix+email, -1).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	var code domain.OneTimeCode
	if err := json.Unmarshal(raw, &code); err != nil {
		return nil, fmt.Errorf("decode code: %w", err)
	}
	return &code, nil
}

func (r *CodeRepository) DeleteAllByEmail(ctx context.Context, email string) error {
	return r.client.Del(ctx, codePrefix+email).Err()
}

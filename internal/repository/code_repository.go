package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

type codeRepository struct {
	pool *pgxpool.Pool
}

// NewCodeRepository returns a Postgres-backed one-time code store.
func NewCodeRepository(pool *pgxpool.Pool) CodeRepository {
	return &codeRepository{pool: pool}
}

func (r *codeRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	const query = `
        INSERT INTO one_time_codes (email, code, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		code.Email,
		code.Code,
		code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt)
}

// GetByEmail returns the most recently issued code for the email.
func (r *codeRepository) GetByEmail(ctx context.Context, email string) (*domain.OneTimeCode, error) {
	const query = `
        SELECT id, email, code, expires_at, created_at
        FROM one_time_codes WHERE email=$1
        ORDER BY created_at DESC LIMIT 1`
	var code domain.OneTimeCode
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&code.ID,
		&code.Email,
		&code.Code,
		&code.ExpiresAt,
		&code.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

func (r *codeRepository) DeleteAllByEmail(ctx context.Context, email string) error {
	const query = `DELETE FROM one_time_codes WHERE email=$1`
	_, err := r.pool.Exec(ctx, query, email)
	return err
}

// DeleteExpired removes codes whose expiry is before the given time.
func (r *codeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM one_time_codes WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

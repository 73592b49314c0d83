package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/account-service/internal/domain"
)

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("repository: conflict")
)

// UserRepository is the credential store: the system of record for users.
type UserRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateByEmail(ctx context.Context, email string, update domain.UserUpdate) (*domain.User, error)
}

// CodeRepository stores one-time codes keyed by email.
type CodeRepository interface {
	Create(ctx context.Context, code *domain.OneTimeCode) error
	GetByEmail(ctx context.Context, email string) (*domain.OneTimeCode, error)
	DeleteAllByEmail(ctx context.Context, email string) error
}

// ResetTicketRepository records that an email passed password-reset code
// verification. A ticket is single use.
type ResetTicketRepository interface {
	Grant(ctx context.Context, email string, ttl time.Duration) error
	Consume(ctx context.Context, email string) (bool, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

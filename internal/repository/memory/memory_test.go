package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	ok, err := repo.Exists(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	u := &domain.User{Name: "Ben", Email: "ben@x.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Email: "ben@x.com"}), repository.ErrConflict)

	ok, err = repo.Exists(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "BEN@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ben@x.com", byID.Email)

	verified := true
	updated, err := repo.UpdateByEmail(ctx, "ben@x.com", domain.UserUpdate{IsVerified: &verified})
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
	assert.Equal(t, "h", updated.PasswordHash)

	unchanged, err := repo.UpdateByEmail(ctx, "ben@x.com", domain.UserUpdate{})
	require.NoError(t, err)
	assert.True(t, unchanged.IsVerified)
	assert.Equal(t, "h", unchanged.PasswordHash)
	_, err = repo.UpdateByEmail(ctx, "nobody@x.com", domain.UserUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.UpdateByEmail(ctx, "nobody@x.com", domain.UserUpdate{IsVerified: &verified})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	byID.Name = "mutated"
	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ben", again.Name)

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCodeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCodeRepository()

	_, err := repo.GetByEmail(ctx, "ben@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	exp := time.Now().Add(time.Minute)
	require.NoError(t, repo.Create(ctx, &domain.OneTimeCode{Email: "ben@x.com", Code: "111111", ExpiresAt: exp}))
	require.NoError(t, repo.Create(ctx, &domain.OneTimeCode{Email: "ben@x.com", Code: "222222", ExpiresAt: exp}))
	require.NoError(t, repo.Create(ctx, &domain.OneTimeCode{Email: "al@x.com", Code: "333333", ExpiresAt: exp}))
	assert.Equal(t, 2, repo.Count("ben@x.com"))

	latest, err := repo.GetByEmail(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", latest.Code)

	require.NoError(t, repo.DeleteAllByEmail(ctx, "ben@x.com"))
	assert.Equal(t, 0, repo.Count("ben@x.com"))
	assert.Equal(t, 1, repo.Count("al@x.com"))

	removed, err := repo.DeleteExpired(ctx, exp)
	require.NoError(t, err)
	assert.Zero(t, removed)
	removed, err = repo.DeleteExpired(ctx, exp.Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Equal(t, 0, repo.Count("al@x.com"))
}

func TestResetTicketRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewResetTicketRepository(func() time.Time { return now })

	ok, err := repo.Consume(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Grant(ctx, "ben@x.com", time.Minute))
	ok, err = repo.Consume(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Grant(ctx, "ben@x.com", time.Minute))
	now = now.Add(2 * time.Minute)
	ok, err = repo.Consume(ctx, "ben@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

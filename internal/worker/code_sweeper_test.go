package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository/memory"
)

func TestSweepOnceDeletesExpiredCodes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	codes := memory.NewCodeRepository()
	require.NoError(t, codes.Create(ctx, &domain.OneTimeCode{Email: "old@x.com", Code: "111111", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, codes.Create(ctx, &domain.OneTimeCode{Email: "new@x.com", Code: "222222", ExpiresAt: now.Add(time.Minute)}))

	s := NewCodeSweeper(codes, time.Minute, zap.NewNop())
	s.now = func() time.Time { return now }

	assert.Equal(t, int64(1), s.SweepOnce(ctx))
	assert.Equal(t, 0, codes.Count("old@x.com"))
	assert.Equal(t, 1, codes.Count("new@x.com"))
}

type failingPurger struct{}

func (failingPurger) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("db down")
}

func TestSweepOnceSurvivesErrors(t *testing.T) {
	s := NewCodeSweeper(failingPurger{}, time.Minute, zap.NewNop())
	assert.Equal(t, int64(0), s.SweepOnce(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewCodeSweeper(failingPurger{}, time.Millisecond, zap.NewNop()).Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

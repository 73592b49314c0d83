// Package worker runs background maintenance for the account service.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredCodePurger is implemented by code stores without native expiry.
type ExpiredCodePurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// CodeSweeper periodically deletes expired one-time codes. Expired codes are
// already rejected on use; sweeping only keeps the table small.
type CodeSweeper struct {
	store    ExpiredCodePurger
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCodeSweeper builds a sweeper that runs every interval.
func NewCodeSweeper(store ExpiredCodePurger, interval time.Duration, logger *zap.Logger) *CodeSweeper {
	return &CodeSweeper{store: store, interval: interval, logger: logger.Named("code_sweeper"), now: time.Now}
}

// Run sweeps until ctx is cancelled.
func (s *CodeSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("code sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("code sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes codes that expired before now and returns how many went.
func (s *CodeSweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn("sweep expired codes", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Debug("expired codes deleted", zap.Int64("count", n))
	}
	return n
}

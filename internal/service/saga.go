package service

import (
	"context"

	"go.uber.org/zap"
)

// compensations collects undo steps for a multi-store flow. Steps run in
// reverse registration order.
type compensations struct {
	steps []compensation
}

type compensation struct {
	name string
	fn   func(context.Context) error
}

func (c *compensations) add(name string, fn func(context.Context) error) {
	c.steps = append(c.steps, compensation{name: name, fn: fn})
}

// run executes every step even if some fail. It ignores cancellation of ctx so
// a timed out request still gets cleaned up.
func (c *compensations) run(ctx context.Context, logger *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.fn(ctx); err != nil {
			logger.Error("compensation failed", zap.String("step", step.name), zap.Error(err))
			continue
		}
		logger.Info("compensation applied", zap.String("step", step.name))
	}
}

package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer records messages in the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a mailer for local development.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message envelope and body at debug level.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.logger.Info("email queued to log",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	m.logger.Debug("email body", zap.String("to", msg.To), zap.String("html", msg.HTML))
	return nil
}

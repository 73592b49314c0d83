package notification

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
)

// NewMailer selects the transport named by cfg.Driver. Network transports are
// wrapped in a circuit breaker.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Driver {
	case config.MailDriverLog:
		return NewLogMailer(logger), nil
	case config.MailDriverSMTP:
		smtp := NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.Timeout)
		return NewBreakerMailer(smtp, cfg.BreakerMaxFailures, cfg.BreakerTimeout, logger), nil
	case config.MailDriverHTTP:
		api := NewHTTPMailer(cfg.APIURL, cfg.APIKey, cfg.Timeout)
		return NewBreakerMailer(api, cfg.BreakerMaxFailures, cfg.BreakerTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

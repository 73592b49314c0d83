// Package notification delivers one-time codes to users by email.
package notification

import (
	"context"
	"errors"
	"strings"
)

// Message is a single HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Validate checks that every field is populated.
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" || strings.TrimSpace(m.To) == "" {
		return errors.New("notification: sender and recipient required")
	}
	if m.Subject == "" || m.HTML == "" {
		return errors.New("notification: subject and body required")
	}
	return nil
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f MailerFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

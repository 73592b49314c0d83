package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered        EventType = "user.registered"
	EventUserLoggedIn          EventType = "user.logged_in"
	EventCodeIssued            EventType = "code.issued"
	EventEmailVerified         EventType = "email.verified"
	EventPasswordResetVerified EventType = "password_reset.verified"
	EventPasswordReset         EventType = "password.reset"
)

// AllEventTypes lists every account event, in lifecycle order.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserLoggedIn,
	EventCodeIssued,
	EventEmailVerified,
	EventPasswordResetVerified,
	EventPasswordReset,
}

// Event represents an account lifecycle change emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a fresh event.
func NewEvent(eventType EventType, userID, email string, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Email:     email,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// CodeIssuedPayload payload. The code itself is never included.
type CodeIssuedPayload struct {
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}

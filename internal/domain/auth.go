package domain

import "time"

// AuthResult is returned by flows that authenticate a user.
type AuthResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

package domain

import "time"

// CodePurpose distinguishes why a one-time code was issued.
type CodePurpose string

const (
	CodePurposeEmailVerification CodePurpose = "email_verification"
	CodePurposePasswordReset     CodePurpose = "password_reset"
)

// OneTimeCode is a short-lived numeric code owned by an email address.
type OneTimeCode struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Code      string    `bson:"code"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Expired reports whether the code is expired relative to now.
func (c OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

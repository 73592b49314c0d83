package domain

import "time"

// User is the identity record for an account holder.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	IsVerified   bool      `json:"isVerified" bson:"is_verified"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// UserUpdate carries the mutable fields of a User. Nil fields are left untouched.
type UserUpdate struct {
	PasswordHash *string
	IsVerified   *bool
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.PasswordHash == nil && u.IsVerified == nil
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOneTimeCodeExpired(t *testing.T) {
	exp := time.Date(2024, 5, 1, 12, 10, 0, 0, time.UTC)
	c := OneTimeCode{ExpiresAt: exp}

	assert.False(t, c.Expired(exp.Add(-time.Second)))
	assert.False(t, c.Expired(exp))
	assert.True(t, c.Expired(exp.Add(time.Nanosecond)))
}

func TestUserUpdateIsEmpty(t *testing.T) {
	assert.True(t, UserUpdate{}.IsEmpty())

	verified := true
	assert.False(t, UserUpdate{IsVerified: &verified}.IsEmpty())
	hash := "h"
	assert.False(t, UserUpdate{PasswordHash: &hash}.IsEmpty())
}

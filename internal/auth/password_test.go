package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("Password1!")
	require.NoError(t, err)
	second, err := h.Hash("Password1!")
	require.NoError(t, err)

	assert.NotEqual(t, "Password1!", first)
	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("Password1!", first))
	assert.True(t, h.Verify("Password1!", second))
	assert.False(t, h.Verify("Password2!", first))
	assert.False(t, h.Verify("Password1!", "not-a-hash"))
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewHasher(12).cost)
}

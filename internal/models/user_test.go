package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestBeforeCreateHashesAndDefaultsRole(t *testing.T) {
	user := &User{Email: "user@example.com", Password: "plaintext-secret"}

	require.NoError(t, user.BeforeCreate(nil))

	assert.NotEqual(t, "plaintext-secret", user.Password)
	assert.True(t, CheckPasswordHash("plaintext-secret", user.Password))
	assert.Equal(t, "user", user.Role)
	assert.False(t, user.IsAdmin())
}

func TestCharacterIsApproved(t *testing.T) {
	assert.False(t, (&Character{Status: StatusPending}).IsApproved())
	assert.False(t, (&Character{Status: StatusRejected}).IsApproved())
	assert.True(t, (&Character{Status: StatusApproved}).IsApproved())
}

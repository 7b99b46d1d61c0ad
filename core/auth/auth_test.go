package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, CheckPasswordHash("correct horse battery", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	Init("test-secret")

	token, err := GenerateToken(42, "freddie")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "freddie", claims.Username)
}

func TestTokenWrongSecret(t *testing.T) {
	Init("secret-one")
	token, err := GenerateToken(42, "freddie")
	require.NoError(t, err)

	Init("secret-two")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	Init("test-secret")
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "alice", "alice@x.com", false, "secret")
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.False(t, claims.IsAnonymous)
}

func TestTokenAnonymousSession(t *testing.T) {
	token, err := GenerateToken("participant-1", "", "", true, "secret")
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.True(t, claims.IsAnonymous)
	assert.Empty(t, claims.Email)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "alice", "alice@x.com", false, "secret")
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

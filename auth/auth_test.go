package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTokenWithoutSecretReturnsError(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := CreateToken("ana")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := CreateToken("ana")
	require.NoError(t, err)

	username, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana", username)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	_, err := VerifyToken("not-a-token")
	assert.Error(t, err)
}

package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user_abc123", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user_abc123", claims["sub"])
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("user_abc123", "secret")
	require.NoError(t, err)

	_, err = VerifyJWT(token, "different")
	assert.Error(t, err)
}

func TestVerifyJWTRejectsGarbage(t *testing.T) {
	_, err := VerifyJWT("not.a.token", "secret")
	assert.Error(t, err)
}

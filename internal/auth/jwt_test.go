package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := GenerateToken("alice", time.Hour, secret)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestParseToken_Rejects(t *testing.T) {
	secret := []byte("s3cret")

	expired, err := GenerateToken("alice", -time.Minute, secret)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := GenerateToken("alice", time.Hour, []byte("other"))
	require.NoError(t, err)
	_, err = ParseToken(other, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("garbage", secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateToken("alice", time.Hour, nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

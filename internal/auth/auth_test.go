package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer(secret, "excellere", time.Hour)
	require.NoError(t, err)

	tok, err := iss.Issue("user-1", RoleLearner, "cfo@example.com")
	require.NoError(t, err)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, RoleLearner, claims.Role)
	assert.Equal(t, "cfo@example.com", claims.Email)
}

func TestParse_Rejects(t *testing.T) {
	iss, err := NewIssuer(secret, "excellere", time.Hour)
	require.NoError(t, err)
	tok, err := iss.Issue("user-1", RoleValidator, "")
	require.NoError(t, err)

	other, err := NewIssuer("another-secret-of-length", "excellere", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewIssuer(secret, "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = wrongIssuer.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	_, err := NewIssuer("short", "", 0)
	require.Error(t, err)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]any{"user_id", "u1", "access_token", "abc", "PASSWORD", "pw", "dangling"})
	assert.Equal(t, []any{"user_id", "u1", "access_token", "[REDACTED]", "PASSWORD", "[REDACTED]", "dangling"}, got)
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New("dev", "loud")
	require.Error(t, err)
}

func TestNew_ProdMode(t *testing.T) {
	l, err := New("prod", "info")
	require.NoError(t, err)
	l.With("service", "test").Info("hello", "k", "v")
}

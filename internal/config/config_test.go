package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Redis.PhaseTTL)
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "excellere.yaml")
	body := `
server:
  addr: ":9090"
database:
  driver: postgres
  dsn: postgres://localhost/excellere
redis:
  phase_ttl: 2h
llm:
  provider: openai
difficulty:
  max_external_step_up: 1
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("EXCELLERE_ADDR", ":7070")
	t.Setenv("EXCELLERE_LLM_PROVIDER", "mock")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Redis.PhaseTTL)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 1, cfg.Difficulty.MaxExternalStepUp)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate(), "missing JWT secret")

	cfg.Auth.JWTSecret = "0123456789abcdef"
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	require.Error(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a", "https://b"}, splitList(" https://a, ,https://b "))
}

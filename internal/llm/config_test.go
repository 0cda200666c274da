package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv("EXCELLERE_LLM_PROVIDER", "openai")
	t.Setenv("EXCELLERE_OPENAI_API_KEY", "sk-test")
	t.Setenv("EXCELLERE_LLM_TIMEOUT", "5s")
	t.Setenv("EXCELLERE_LLM_MAX_ATTEMPTS", "3")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestApplyEnv_DiscoversVendorKey(t *testing.T) {
	t.Setenv("EXCELLERE_LLM_PROVIDER", "")
	t.Setenv("EXCELLERE_ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gm-test")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gm-test", cfg.Gemini.APIKey)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "EXCELLERE_ANTHROPIC_API_KEY")

	cfg.Provider = "mock"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "llama"
	assert.Error(t, cfg.Validate())
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	// The empty mock fails every call, which is what callers degrade on.
	_, err = p.Generate(context.Background(), Request{})
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o")
	require.NotNil(t, c)
	assert.InDelta(t, 2.5, c.Cost(1_000_000, 0), 1e-9)

	c = LookupCost("anthropic/claude-sonnet-4")
	require.NotNil(t, c)
	assert.Equal(t, 15.0, c.OutputPerMTok)

	assert.Nil(t, LookupCost("unknown-model"))
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Kind: KindRateLimited, Provider: "openai", Status: 429}
	assert.Equal(t, "openai: llm rate_limit (status 429)", e.Error())
	assert.Equal(t, Kind(0), KindOf(context.Canceled))
}

func TestMock_ValidatesSchemaAndStop(t *testing.T) {
	mock := NewMockProvider(
		TextResponse(`{"name":"Dana"}`),
		MockResponse{Content: []byte(`{"name":"Dana","score":1}`), Stop: StopMaxTokens},
	)
	_, err := mock.Generate(context.Background(), Request{Schema: testSchema()})
	assert.Equal(t, KindInvalidResponse, KindOf(err))
	_, err = mock.Generate(context.Background(), Request{Schema: testSchema()})
	assert.Equal(t, KindTruncated, KindOf(err))
	assert.Equal(t, 2, mock.CallCount())
}

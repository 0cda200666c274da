package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/excellere/excellere/internal/logger"
)

// NewProvider builds the configured backend wrapped as
// tracing -> deadline -> retry -> usage log -> backend. Each attempt is
// logged; the span and the deadline cover the whole call.
func NewProvider(ctx context.Context, cfg Config, events EventRecorder, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithUsageLog(base, cfg.Provider, events, log)
	p = WithRetry(p, cfg.Retry, log)
	p = WithDeadline(p, cfg.Timeout)
	return WithTracing(p, cfg.Provider), nil
}

func newBackend(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// deadlineProvider bounds each call, retries included.
type deadlineProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithDeadline wraps p so every call is cancelled after timeout. A zero
// timeout returns p unchanged.
func WithDeadline(p Provider, timeout time.Duration) Provider {
	if timeout <= 0 {
		return p
	}
	return &deadlineProvider{inner: p, timeout: timeout}
}

func (d *deadlineProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.inner.Generate(ctx, req)
}

func (d *deadlineProvider) ModelID() string {
	return d.inner.ModelID()
}

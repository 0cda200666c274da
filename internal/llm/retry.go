package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/excellere/excellere/internal/logger"
)

// RetryProvider retries transient failures with capped exponential
// backoff and jitter. With MaxAttempts <= 1 it is a pass-through.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
	log   *logger.Logger
	sleep func(context.Context, time.Duration) error
}

// WithRetry wraps p. log may be nil.
func WithRetry(p Provider, cfg RetryConfig, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &RetryProvider{inner: p, cfg: cfg, log: log.With("component", "llm_retry"), sleep: sleepCtx}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	invalidSeen := false

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(withAttempt(ctx, attempt), req)
		if err == nil {
			return resp, nil
		}
		if attempt >= attempts || !retryable(err, &invalidSeen) {
			return nil, err
		}

		wait := r.delay(attempt, err)
		r.log.Info("retrying llm request",
			"purpose", PurposeFrom(ctx), "attempt", attempt, "wait_ms", wait.Milliseconds(), "kind", KindOf(err).String())
		trace.SpanFromContext(ctx).AddEvent("llm.retry", trace.WithAttributes(
			attribute.Int("llm.attempt", attempt),
			attribute.String("llm.error_kind", KindOf(err).String()),
		))
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether err is worth another attempt. A schema
// violation is retried once per call.
func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch KindOf(err) {
	case KindTruncated, KindRefused, KindRejected:
		return false
	case KindInvalidResponse:
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
		return true
	default:
		// Rate limits, outages and untyped transport errors.
		return true
	}
}

// delay is the wait before attempt+1. A provider-supplied RetryAfter wins.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return e.RetryAfter
	}

	mult := r.cfg.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(r.cfg.InitialWait)
	for i := 1; i < attempt; i++ {
		wait *= mult
	}
	if r.cfg.MaxWait > 0 && wait > float64(r.cfg.MaxWait) {
		wait = float64(r.cfg.MaxWait)
	}
	// ±20% jitter
	wait *= 0.8 + 0.4*rand.Float64()
	return time.Duration(wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

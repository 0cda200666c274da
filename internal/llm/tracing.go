package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/excellere/excellere/internal/llm"

// TracingProvider opens one span per Generate call, covering all retries.
type TracingProvider struct {
	inner    Provider
	provider string
}

// WithTracing wraps p with a span per call.
func WithTracing(p Provider, providerName string) Provider {
	return &TracingProvider{inner: p, provider: providerName}
}

func (t *TracingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.generate", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", t.provider),
			attribute.String("llm.model", t.inner.ModelID()),
			attribute.String("llm.purpose", PurposeFrom(ctx)),
			attribute.Bool("llm.structured", req.Schema != nil),
		))
	defer span.End()

	resp, err := t.inner.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

func (t *TracingProvider) ModelID() string {
	return t.inner.ModelID()
}

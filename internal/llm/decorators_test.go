package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/excellere/excellere/internal/store"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func down() MockResponse {
	return MockResponse{Err: Unavailable("mock", errors.New("down"))}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		responses []MockResponse
		attempts  int
		wantCalls int
		wantKind  Kind
	}{
		{"success first try", []MockResponse{TextResponse("ok")}, 3, 1, 0},
		{"recovers from outage", []MockResponse{down(), TextResponse("ok")}, 3, 2, 0},
		{"gives up after max attempts", []MockResponse{down(), down(), down(), down()}, 3, 3, KindUnavailable},
		{"truncation is final", []MockResponse{{Err: &Error{Kind: KindTruncated}}, TextResponse("ok")}, 3, 1, KindTruncated},
		{"rejection is final", []MockResponse{{Err: &Error{Kind: KindRejected, Status: 400}}, TextResponse("ok")}, 3, 1, KindRejected},
		{"refusal is final", []MockResponse{{Err: &Error{Kind: KindRefused}}, TextResponse("ok")}, 3, 1, KindRefused},
		{"invalid retried once", []MockResponse{
			{Err: &Error{Kind: KindInvalidResponse}},
			{Err: &Error{Kind: KindInvalidResponse}},
			TextResponse("ok"),
		}, 5, 2, KindInvalidResponse},
		{"untyped errors are transient", []MockResponse{{Err: errors.New("connection reset")}, TextResponse("ok")}, 2, 2, 0},
		{"single attempt passes through", []MockResponse{down(), TextResponse("ok")}, 1, 1, KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, fastRetry(tt.attempts), nil)

			resp, err := p.Generate(context.Background(), Request{})
			assert.Equal(t, tt.wantCalls, mock.CallCount())
			if tt.wantKind == 0 {
				require.NoError(t, err)
				assert.Equal(t, "ok", resp.Text())
				return
			}
			assert.Equal(t, tt.wantKind, KindOf(err))
		})
	}
}

func TestRetry_HonoursRetryAfter(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &Error{Kind: KindRateLimited, RetryAfter: 7 * time.Second}}, TextResponse("ok"))
	rp := WithRetry(mock, fastRetry(2), nil).(*RetryProvider)
	var waited []time.Duration
	rp.sleep = func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	_, err := rp.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, waited)
}

func TestRetry_Backoff(t *testing.T) {
	rp := &RetryProvider{cfg: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: 300 * time.Millisecond, Multiplier: 2}}
	for attempt, base := range map[int]time.Duration{1: 100, 2: 200, 3: 300, 6: 300} {
		d := rp.delay(attempt, errors.New("x"))
		lo, hi := base*time.Millisecond*8/10, base*time.Millisecond*12/10
		assert.True(t, d >= lo && d <= hi, "attempt %d: %s not in [%s, %s]", attempt, d, lo, hi)
	}
}

func TestRetry_StopsOnCancel(t *testing.T) {
	mock := NewMockProvider(down(), TextResponse("ok"))
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, Multiplier: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

type recordingRepo struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"overall_strength":70}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 40},
	})
	p := WithUsageLog(mock, "mock", repo, nil)

	ctx := WithPurpose(context.Background(), PurposeTeachBack)
	_, err := p.Generate(ctx, Request{
		System:   "assessor",
		Messages: []Message{{Role: RoleUser, Content: "Concept: next-token prediction"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, PurposeTeachBack, ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 120, ev.InputTokens)
	assert.Contains(t, ev.RequestBody, "[system]\nassessor")
	assert.Equal(t, `{"overall_strength":70}`, ev.ResponseBody)
}

func TestLogging_FailureAndRepoError(t *testing.T) {
	repo := &recordingRepo{err: errors.New("disk full")}
	p := WithUsageLog(NewMockProvider(down()), "mock", repo, nil)

	_, err := p.Generate(context.Background(), Request{})
	assert.Equal(t, KindUnavailable, KindOf(err))
	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Equal(t, "unknown", repo.events[0].Purpose)
	assert.Contains(t, repo.events[0].ErrorMessage, "down")
	assert.Equal(t, "unavailable", repo.events[0].ErrorKind)
}

func TestUsageLog_RowPerAttempt(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(
		down(),
		MockResponse{Content: json.RawMessage(`{"name":"Dana"}`)},
	)
	p := WithRetry(WithUsageLog(mock, "mock", repo, nil), fastRetry(2), nil)

	_, err := p.Generate(context.Background(), Request{Schema: testSchema()})
	require.Error(t, err)
	require.Len(t, repo.events, 2)
	assert.Equal(t, 1, repo.events[0].Attempt)
	assert.Equal(t, "unavailable", repo.events[0].ErrorKind)
	assert.Equal(t, 2, repo.events[1].Attempt)
	assert.Equal(t, "invalid_response", repo.events[1].ErrorKind)
	assert.Equal(t, `{"name":"Dana"}`, repo.events[1].ResponseBody)
	assert.Contains(t, repo.events[1].RequestBody, "[schema: test-schema]")
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestDeadline(t *testing.T) {
	p := WithDeadline(blockingProvider{}, 20*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "blocking", p.ModelID())

	var inner Provider = blockingProvider{}
	assert.Equal(t, inner, WithDeadline(inner, 0))
}

func TestTracing_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"ok"`), Usage: Usage{InputTokens: 3, OutputTokens: 4}}, down())
	p := WithTracing(mock, "mock")
	ctx := WithPurpose(context.Background(), PurposeInsightReport)

	_, err := p.Generate(ctx, Request{})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "llm.generate", spans[0].Name())
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, PurposeInsightReport, attrs["llm.purpose"])
	assert.Equal(t, int64(4), attrs["llm.output_tokens"])
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "unavailable", spans[1].Status().Description)
}

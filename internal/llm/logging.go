package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/store"
)

// EventRecorder persists one row per provider attempt.
// *store.LLMEventRepo satisfies it.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// UsageLogProvider writes every attempt to the usage log and the
// structured log. It sits below RetryProvider so retries show up as
// separate rows with increasing Attempt.
type UsageLogProvider struct {
	inner    Provider
	provider string
	events   EventRecorder
	log      *logger.Logger
}

// WithUsageLog wraps p. events and log may be nil.
func WithUsageLog(p Provider, providerName string, events EventRecorder, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &UsageLogProvider{inner: p, provider: providerName, events: events, log: log.With("component", "llm")}
}

func (u *UsageLogProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	began := time.Now()
	resp, err := u.inner.Generate(ctx, req)
	ev := u.event(ctx, req, resp, err, time.Since(began))

	kv := []any{"purpose", ev.Purpose, "model", ev.Model, "attempt", ev.Attempt, "latency_ms", ev.LatencyMs}
	if err != nil {
		u.log.Warn("llm call failed", append(kv, "kind", ev.ErrorKind, "error", err)...)
	} else {
		u.log.Debug("llm call", append(kv, "input_tokens", ev.InputTokens, "output_tokens", ev.OutputTokens)...)
	}

	if u.events != nil {
		if werr := u.events.AppendLLMRequest(ctx, ev); werr != nil {
			u.log.Error("usage log write failed", "error", werr)
		}
	}
	return resp, err
}

func (u *UsageLogProvider) ModelID() string {
	return u.inner.ModelID()
}

func (u *UsageLogProvider) event(ctx context.Context, req Request, resp *Response, err error, took time.Duration) store.LLMRequestEventData {
	ev := store.LLMRequestEventData{
		Provider:    u.provider,
		Model:       u.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		Attempt:     attemptFrom(ctx),
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
		ev.ErrorKind = errorKind(err)
		// Keep what the model produced when the failure was about its output.
		var le *Error
		if ev.ResponseBody == "" && errors.As(err, &le) && len(le.Content) > 0 {
			ev.ResponseBody = string(le.Content)
		}
	}
	return ev
}

func errorKind(err error) string {
	switch {
	case KindOf(err) != 0:
		return KindOf(err).String()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}

// transcript renders a request the way the llm view command prints it.
func transcript(req Request) string {
	var b strings.Builder
	section := func(label, body string) {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", label, body)
	}
	if req.System != "" {
		section("system", req.System)
	}
	for _, m := range req.Messages {
		section(string(m.Role), m.Content)
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			section("schema: "+req.Schema.Name, string(def))
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/excellere/excellere/internal/difficulty"
	"github.com/excellere/excellere/internal/llm"
	"github.com/excellere/excellere/internal/logger"
)

// AnalysisProvider sends a prompt to a text-generation service and returns
// its raw text.
type AnalysisProvider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config holds generation settings for analysis calls.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// LLMAnalysisProvider adapts an llm.Provider. Requests carry no schema so
// the raw text goes through ParseAnalysis.
type LLMAnalysisProvider struct {
	provider llm.Provider
	cfg      Config
}

// NewLLMAnalysisProvider wraps p.
func NewLLMAnalysisProvider(p llm.Provider, cfg Config) *LLMAnalysisProvider {
	return &LLMAnalysisProvider{provider: p, cfg: cfg}
}

func (a *LLMAnalysisProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Requestor produces analyses. It never fails: on any error it returns
// DefaultResult and logs the degraded path.
type Requestor struct {
	provider AnalysisProvider
	log      *logger.Logger
}

// NewRequestor creates a Requestor. log may be nil.
func NewRequestor(p AnalysisProvider, log *logger.Logger) *Requestor {
	if log == nil {
		log = logger.Nop()
	}
	return &Requestor{provider: p, log: log.With("component", "assessment")}
}

// RequestAnalysis grades a teach-back response.
func (r *Requestor) RequestAnalysis(ctx context.Context, concept Concept, response string, profile Profile, tier difficulty.Tier) Result {
	return r.Analyse(ctx, Request{
		Concept:    concept,
		Response:   response,
		Profile:    profile,
		Difficulty: tier,
	})
}

// Analyse grades req, choosing the usage-log purpose from its kind.
func (r *Requestor) Analyse(ctx context.Context, req Request) Result {
	purpose := llm.PurposeTeachBack
	if req.Deeper() {
		purpose = llm.PurposeDeeper
	}
	ctx = llm.WithPurpose(ctx, purpose)

	res, err := r.analyse(ctx, req)
	if err != nil {
		r.log.Warn("analysis degraded to default result",
			"concept_id", req.Concept.ID, "purpose", purpose, "reason", degradeReason(err), "error", err)
		return DefaultResult()
	}
	return res
}

var errUnparsable = errors.New("unparsable analysis output")

func (r *Requestor) analyse(ctx context.Context, req Request) (Result, error) {
	if r.provider == nil {
		return Result{}, llm.Unavailable("", errors.New("no analysis provider"))
	}
	prompt, err := BuildPrompt(req)
	if err != nil {
		return Result{}, fmt.Errorf("build analysis prompt: %w", err)
	}
	raw, err := r.provider.Complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("analysis request: %w", err)
	}
	res, ok := ParseAnalysis(raw)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", errUnparsable, truncate(raw, 120))
	}
	return res, nil
}

func degradeReason(err error) string {
	switch {
	case errors.Is(err, errUnparsable):
		return "parse"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	if k := llm.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

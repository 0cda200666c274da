// Package llm abstracts the text-generation services that grade teach-back
// responses and draft insight reports.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate sends a prompt and returns the model output. When req.Schema
	// is set the provider uses its native structured output and validates
	// the JSON; otherwise Content holds the raw text as returned, which may
	// include markdown fences.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation. Assessment calls are single-turn.
	Messages []Message

	// Schema, when non-nil, requests structured JSON output.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name is kebab-case, e.g. "insight-report". Used as the OpenAI schema
	// name and as the compiled-schema cache key.
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopRefusal   = "refusal"
)

// Response holds the LLM's output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is one of StopEnd, StopMaxTokens or StopRefusal.
	StopReason string
}

// Text returns Content as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// finish normalizes a backend's answer: truncation and refusals become
// errors and the requested schema, if any, is enforced.
func finish(provider string, req Request, resp *Response) (*Response, error) {
	switch resp.StopReason {
	case StopMaxTokens:
		return nil, &Error{Kind: KindTruncated, Provider: provider, Content: resp.Content,
			Err: fmt.Errorf("stopped at %d tokens", req.MaxTokens)}
	case StopRefusal:
		return nil, &Error{Kind: KindRefused, Provider: provider, Content: resp.Content}
	}
	if len(bytes.TrimSpace(resp.Content)) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Err: errors.New("empty response")}
	}
	if req.Schema != nil {
		if err := schemas.validate(req.Schema, resp.Content); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Content: resp.Content, Err: err}
		}
	}
	if resp.Usage.TotalTokens == 0 {
		resp.Usage.TotalTokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
	}
	return resp, nil
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockResponse is one scripted outcome for MockProvider. Err, when set,
// is returned as is; otherwise Content goes through the same stop-reason
// and schema checks a real backend applies.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
	Stop    string // defaults to StopEnd
}

// TextResponse scripts a plain model reply.
func TextResponse(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// MockProvider replays scripted responses in order and remembers every
// request. Once the script runs out it reports itself unavailable, so an
// unscripted mock drives callers down their degraded path.
type MockProvider struct {
	mu       sync.Mutex
	script   []MockResponse
	requests []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

// Enqueue appends to the script.
func (m *MockProvider) Enqueue(rs ...MockResponse) {
	m.mu.Lock()
	m.script = append(m.script, rs...)
	m.mu.Unlock()
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, Unavailable("mock", errors.New("script exhausted"))
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	stop := next.Stop
	if stop == "" {
		stop = StopEnd
	}
	return finish("mock", req, &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: stop})
}

func (m *MockProvider) ModelID() string { return "mock" }

// Requests returns a copy of every request seen so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastCall is the zero Request before the first call.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}
	}
	return m.requests[len(m.requests)-1]
}

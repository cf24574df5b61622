package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/llm"
)

// scriptedProvider answers every completion with reply (or err).
type scriptedProvider struct {
	mu        sync.Mutex
	reply     string
	err       error
	healthErr error
	requests  []llm.ChatRequest
}

func (p *scriptedProvider) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{Content: p.reply, StopReason: "stop"}, nil
}

func (p *scriptedProvider) ModelInfo() llm.ModelMeta {
	return llm.ModelMeta{ID: "test-model", Provider: "scripted"}
}

func (p *scriptedProvider) HealthCheck(context.Context) error { return p.healthErr }

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// stubTool answers with a fixed function and records every input.
type stubTool struct {
	name   string
	answer func(input map[string]any) tool.Result
	calls  atomic.Int32
	mu     sync.Mutex
	inputs []map[string]any
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub " + s.name }
func (s *stubTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"project_key":{"type":"string"}}}`)
}

func (s *stubTool) Invoke(_ context.Context, input json.RawMessage) tool.Result {
	s.calls.Add(1)
	var m map[string]any
	_ = json.Unmarshal(input, &m)
	s.mu.Lock()
	s.inputs = append(s.inputs, m)
	s.mu.Unlock()
	return s.answer(m)
}

func (s *stubTool) lastInput() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return nil
	}
	return s.inputs[len(s.inputs)-1]
}

func echoing(name string) *stubTool {
	return &stubTool{name: name, answer: func(in map[string]any) tool.Result {
		return tool.OK(map[string]any{"tool": name, "input": in})
	}}
}

func failing(name, msg string) *stubTool {
	return &stubTool{name: name, answer: func(map[string]any) tool.Result { return tool.Fail(msg) }}
}

func newStubRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry(zerolog.Nop())
	for _, tl := range tools {
		require.NoError(t, r.Register(tl))
	}
	return r
}

func newStubDispatcher(t *testing.T, provider *scriptedProvider, tools ...tool.Tool) (*Dispatcher, *SessionHandle) {
	t.Helper()
	registry := newStubRegistry(t, tools...)
	router := llm.NewRouter(map[string]llm.Provider{"scripted": provider}, "scripted")
	sessions := NewLLMSessionHandle(router, registry, zerolog.Nop())
	return NewDispatcher(registry, sessions, zerolog.Nop()), sessions
}

var errModelDown = errors.New("connection refused")

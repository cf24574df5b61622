package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
	"github.com/matiasleandrokruk/jiraagent/internal/infra/llm"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query is required")

// Session is a reasoning session bound to one model and the tool catalog.
// It is immutable once built and shared by all requests.
type Session struct {
	provider     llm.Provider
	model        llm.ModelMeta
	systemPrompt string
}

func NewSession(provider llm.Provider, systemPrompt string) *Session {
	return &Session{provider: provider, model: provider.ModelInfo(), systemPrompt: systemPrompt}
}

func (s *Session) Model() llm.ModelMeta { return s.model }

// Reason sends one completion request at temperature 0 and returns the raw text.
func (s *Session) Reason(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}
	start := time.Now()
	resp, err := s.provider.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: s.systemPrompt},
			{Role: llm.RoleUser, Content: UserPrompt(query)},
		},
		Temperature: 0,
	})
	reasoningDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("reasoning: %w", err)
	}
	return resp.Content, nil
}

// sessionBuildTimeout bounds a shared construction, which outlives the
// request that started it.
const sessionBuildTimeout = 30 * time.Second

// SessionBuilder constructs a session. It may block on the network.
type SessionBuilder func(ctx context.Context) (*Session, error)

// SessionHandle builds its Session at most once, on first use. Concurrent
// first callers share one construction. A failed construction is not kept,
// so the next call tries again.
type SessionHandle struct {
	build  SessionBuilder
	group  singleflight.Group
	cur    atomic.Pointer[Session]
	builds atomic.Int64
}

func NewSessionHandle(build SessionBuilder) *SessionHandle {
	return &SessionHandle{build: build}
}

// NewLLMSessionHandle builds sessions from the router's provider and the
// registry's catalog. The provider must pass its health check.
func NewLLMSessionHandle(router *llm.Router, registry *tool.Registry, logger zerolog.Logger) *SessionHandle {
	return NewSessionHandle(func(ctx context.Context) (*Session, error) {
		provider, err := router.Route(ctx)
		if err != nil {
			return nil, err
		}
		if err := provider.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("model runtime unavailable: %w", err)
		}
		s := NewSession(provider, BuildReasoningPrompt(registry.Catalog()))
		logger.Info().
			Str("provider", s.model.Provider).
			Str("model", s.model.ID).
			Strs("tools", registry.Names()).
			Msg("reasoning session initialized")
		return s, nil
	})
}

// Get returns the shared session, building it if needed. The build runs
// detached from ctx, so one caller giving up does not fail the others
// waiting on it; ctx only bounds how long this caller waits.
func (h *SessionHandle) Get(ctx context.Context) (*Session, error) {
	if s := h.cur.Load(); s != nil {
		return s, nil
	}
	ch := h.group.DoChan("session", func() (any, error) {
		if s := h.cur.Load(); s != nil {
			return s, nil
		}
		h.builds.Add(1)
		sessionBuilds.Inc()
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionBuildTimeout)
		defer cancel()
		s, err := h.build(buildCtx)
		if err != nil {
			sessionBuildFailures.Inc()
			return nil, err
		}
		if s == nil {
			return nil, errors.New("session builder returned nil")
		}
		h.cur.Store(s)
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("init reasoning session: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("init reasoning session: %w", res.Err)
		}
		return res.Val.(*Session), nil
	}
}

// Ready reports whether a session has been built.
func (h *SessionHandle) Ready() bool { return h.cur.Load() != nil }

// Builds counts construction attempts, failed ones included.
func (h *SessionHandle) Builds() int64 { return h.builds.Load() }

// SessionStatus is the reasoning session state shown on /health.
type SessionStatus struct {
	Ready  bool   `json:"ready"`
	Builds int64  `json:"builds"`
	Model  string `json:"model,omitempty"`
}

func (h *SessionHandle) Status() SessionStatus {
	st := SessionStatus{Ready: h.Ready(), Builds: h.Builds()}
	if s := h.cur.Load(); s != nil {
		st.Model = s.Model().ID
	}
	return st
}

// Package agent turns free-text Jira requests into tool calls: a heuristic
// classifier handles the obvious cases directly and a model-backed reasoning
// session handles the rest.
package agent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

// State is a dispatcher step.
type State int

const (
	StateClassifyAndTryDirect State = iota
	StateFallbackReasoning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateClassifyAndTryDirect:
		return "classify_and_try_direct"
	case StateFallbackReasoning:
		return "fallback_reasoning"
	case StateDone:
		return "done"
	default:
		return "invalid"
	}
}

// Outcome is a finished dispatch with the path it took.
type Outcome struct {
	Response       Response       `json:"response"`
	Classification Classification `json:"classification"`
	Route          string         `json:"route"`
	States         []State        `json:"-"`
	// Tool is the last tool invoked, if any.
	Tool string `json:"tool,omitempty"`
}

// Dispatcher runs the classify → direct call → fallback reasoning chain.
type Dispatcher struct {
	registry *tool.Registry
	sessions *SessionHandle
	logger   zerolog.Logger
}

func NewDispatcher(registry *tool.Registry, sessions *SessionHandle, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, sessions: sessions, logger: logger}
}

// Registry exposes the tool set the dispatcher invokes.
func (d *Dispatcher) Registry() *tool.Registry { return d.registry }

// Sessions is the reasoning session handle behind the fallback path.
func (d *Dispatcher) Sessions() *SessionHandle { return d.sessions }

// Interact answers one query.
func (d *Dispatcher) Interact(ctx context.Context, query string) Response {
	return d.Dispatch(ctx, query).Response
}

// dispatchRun is the per-request state.
type dispatchRun struct {
	query  string
	out    Outcome
	direct *tool.Result // failed direct attempt
}

// Dispatch answers one query and reports how.
func (d *Dispatcher) Dispatch(ctx context.Context, query string) Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		out := Outcome{Response: Failure(ErrEmptyQuery.Error()), Route: routeRejected, States: []State{StateDone}}
		dispatchTotal.WithLabelValues(routeRejected, outcomeLabel(out.Response)).Inc()
		return out
	}

	run := &dispatchRun{query: query}
	state := StateClassifyAndTryDirect
	for {
		run.out.States = append(run.out.States, state)
		switch state {
		case StateClassifyAndTryDirect:
			state = d.classifyAndTryDirect(ctx, run)
		case StateFallbackReasoning:
			state = d.fallbackReasoning(ctx, run)
		default:
			dispatchTotal.WithLabelValues(run.out.Route, outcomeLabel(run.out.Response)).Inc()
			d.logger.Info().
				Str("route", run.out.Route).
				Str("kind", string(run.out.Classification.Kind)).
				Str("tool", run.out.Tool).
				Bool("success", run.out.Response.Success).
				Msg("query dispatched")
			return run.out
		}
	}
}

func (d *Dispatcher) classifyAndTryDirect(ctx context.Context, run *dispatchRun) State {
	c := Classify(run.query)
	run.out.Classification = c
	classificationsTotal.WithLabelValues(string(c.Kind), string(c.Confidence)).Inc()
	d.logger.Debug().
		Str("kind", string(c.Kind)).
		Str("confidence", string(c.Confidence)).
		Strs("args", sortedKeys(c.Args)).
		Msg("query classified")

	if !c.Direct() || !d.registry.Has(c.Tool()) {
		run.out.Route = routeFallback
		return StateFallbackReasoning
	}

	run.out.Tool = c.Tool()
	res := d.registry.Invoke(ctx, c.Tool(), c.Input())
	if res.OK {
		run.out.Route = routeDirect
		run.out.Response = Normalize(res)
		return StateDone
	}

	d.logger.Warn().Str("tool", c.Tool()).Str("error", res.Message).Msg("direct call failed, falling back to reasoning")
	run.direct = &res
	run.out.Route = routeRecovered
	return StateFallbackReasoning
}

func (d *Dispatcher) fallbackReasoning(ctx context.Context, run *dispatchRun) State {
	session, err := d.sessions.Get(ctx)
	if err != nil {
		run.out.Response = d.reasoningFailed(run, err)
		return StateDone
	}

	text, err := session.Reason(ctx, run.query)
	if err != nil {
		run.out.Response = d.reasoningFailed(run, err)
		return StateDone
	}

	verdict, obj, err := ParseVerdict(text)
	switch {
	case err == nil && d.registry.Has(verdict.Tool):
		run.out.Tool = verdict.Tool
		run.out.Response = Normalize(d.registry.Invoke(ctx, verdict.Tool, verdict.Input))
	case run.direct != nil:
		// A reply that runs no tool cannot stand in for the failed call.
		d.logger.Warn().Str("tool", verdict.Tool).Msg("model reply invoked no tool after a failed direct call")
		run.out.Response = Normalize(*run.direct)
	case obj != nil:
		d.logger.Warn().Str("tool", verdict.Tool).Msg("model verdict names no registered tool")
		run.out.Response = Success(obj)
	default:
		d.logger.Debug().Err(err).Msg("model completion carried no verdict")
		run.out.Response = Normalize(strings.TrimSpace(text))
	}
	return StateDone
}

// reasoningFailed prefers the failed direct attempt's message, which carries
// the upstream status, over the reasoning error.
func (d *Dispatcher) reasoningFailed(run *dispatchRun, err error) Response {
	d.logger.Error().Err(err).Msg("fallback reasoning failed")
	if run.direct != nil {
		return Normalize(*run.direct)
	}
	return Failure("fallback reasoning failed: " + err.Error())
}

package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the model answers with no choices.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// Provider is a chat model backend.
type Provider interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ModelInfo() ModelMeta
	// HealthCheck returns nil when the backend is reachable.
	HealthCheck(ctx context.Context) error
}

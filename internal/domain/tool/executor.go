// Package tool defines the agent's callable operations and the registry that
// owns them.
package tool

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotRegistered     = errors.New("tool not registered")
	ErrInvalidInput          = errors.New("invalid input")
)

// Tool is one named operation. Invoke never returns an error: every failure,
// including bad input, comes back as a failed Result.
type Tool interface {
	Name() string
	Description() string
	// InputSchema is the JSON Schema advertised to the model and MCP clients.
	InputSchema() json.RawMessage
	Invoke(ctx context.Context, input json.RawMessage) Result
}

// InputNormalizer is implemented by tools that accept alternate input shapes
// (key aliases, a bare string). The registry applies it before validation.
type InputNormalizer interface {
	NormalizeInput(input json.RawMessage) json.RawMessage
}

// Result is the outcome of a tool call: OK with Data, or not OK with Message.
type Result struct {
	OK      bool
	Data    any
	Message string
}

func OK(data any) Result { return Result{OK: true, Data: data} }

func Fail(message string) Result { return Result{Message: message} }

// Failf builds a failed Result from an error, prefixed with the tool name.
func Failf(tool string, err error) Result {
	return Fail(tool + ": " + err.Error())
}

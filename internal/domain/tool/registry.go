package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Descriptor is the catalog entry for a registered tool.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Registry holds the process-wide tool set in registration order.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{tools: make(map[string]Tool), logger: logger}
}

func (r *Registry) Register(t Tool) error {
	if t == nil || strings.TrimSpace(t.Name()) == "" {
		return fmt.Errorf("%w: empty tool", ErrToolNotRegistered)
	}
	name := strings.TrimSpace(t.Name())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotRegistered, name)
	}
	return t, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Catalog describes every tool in registration order.
func (r *Registry) Catalog() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Descriptor{Name: name, Description: t.Description(), InputSchema: t.InputSchema()})
	}
	return out
}

// Invoke normalizes and checks input against the tool's advertised schema,
// then calls the tool once. Unknown tools and schema violations are failed
// Results, never panics or errors.
func (r *Registry) Invoke(ctx context.Context, name string, input json.RawMessage) Result {
	t, err := r.Get(name)
	if err != nil {
		return Fail(err.Error())
	}

	if n, ok := t.(InputNormalizer); ok {
		input = n.NormalizeInput(input)
	}
	if len(input) == 0 || string(input) == "null" {
		input = json.RawMessage(`{}`)
	}
	if err := ValidateAgainstSchema(input, t.InputSchema()); err != nil {
		toolInvocations.WithLabelValues(name, outcomeInvalid).Inc()
		r.logger.Warn().Str("tool", name).Err(err).Msg("tool input rejected")
		return Failf(name, err)
	}

	start := time.Now()
	res := t.Invoke(ctx, input)
	observeInvocation(name, res, start)

	ev := r.logger.Info()
	if !res.OK {
		ev = r.logger.Warn().Str("error", res.Message)
	}
	ev.Str("tool", name).Bool("ok", res.OK).Dur("took", time.Since(start)).Msg("tool invoked")
	return res
}

// ValidateAgainstSchema enforces the object shape, "required" keys and
// additionalProperties=false of a minimal JSON Schema.
func ValidateAgainstSchema(input, schemaRaw json.RawMessage) error {
	var obj map[string]any
	if err := json.Unmarshal(input, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: input must be a JSON object", ErrInvalidInput)
	}
	if len(schemaRaw) == 0 {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return fmt.Errorf("%w: tool schema is not valid JSON", ErrInvalidInput)
	}
	return validateAgainstMinimalSchema(obj, schema)
}

func validateAgainstMinimalSchema(input, schema map[string]any) error {
	for _, key := range extractStringSlice(schema["required"]) {
		v, ok := input[key]
		if !ok || v == nil {
			return fmt.Errorf("%w: missing required field %q", ErrInvalidInput, key)
		}
	}

	allowAdditional := true
	if v, ok := schema["additionalProperties"].(bool); ok {
		allowAdditional = v
	}
	if allowAdditional {
		return nil
	}

	props, _ := schema["properties"].(map[string]any)
	for key := range input {
		if _, ok := props[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidInput, key)
		}
	}
	return nil
}

func extractStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

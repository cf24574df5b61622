package tool

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	name   string
	schema json.RawMessage
	calls  atomic.Int32
}

func (e *echoTool) Name() string                 { return e.name }
func (e *echoTool) Description() string          { return "echoes its input" }
func (e *echoTool) InputSchema() json.RawMessage { return e.schema }
func (e *echoTool) Invoke(_ context.Context, input json.RawMessage) Result {
	e.calls.Add(1)
	var v map[string]any
	_ = json.Unmarshal(input, &v)
	return OK(v)
}

func newEcho(name string) *echoTool {
	return &echoTool{
		name:   name,
		schema: json.RawMessage(`{"type":"object","required":["key"],"properties":{"key":{"type":"string"}},"additionalProperties":false}`),
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register(newEcho("b")))
	require.NoError(t, r.Register(newEcho("a")))

	got, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name())
	assert.True(t, r.Has("b"))
	assert.False(t, r.Has("c"))
	assert.Equal(t, []string{"b", "a"}, r.Names())
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register(newEcho("a")))
	err := r.Register(newEcho("a"))
	assert.True(t, errors.Is(err, ErrToolAlreadyRegistered))
}

func TestRegistry_RegisterNil(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	assert.ErrorIs(t, r.Register(nil), ErrToolNotRegistered)
	assert.ErrorIs(t, r.Register(newEcho("  ")), ErrToolNotRegistered)
}

func TestRegistry_GetUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(zerolog.Nop()).Get("missing")
	assert.ErrorIs(t, err, ErrToolNotRegistered)
}

func TestRegistry_Catalog(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register(newEcho("a")))

	cat := r.Catalog()
	require.Len(t, cat, 1)
	assert.Equal(t, "a", cat[0].Name)
	assert.Equal(t, "echoes its input", cat[0].Description)
	assert.JSONEq(t, string(newEcho("a").schema), string(cat[0].InputSchema))
}

func TestRegistry_Invoke(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zerolog.Nop())
	echo := newEcho("a")
	require.NoError(t, r.Register(echo))

	res := r.Invoke(context.Background(), "a", json.RawMessage(`{"key":"ENBDX"}`))
	require.True(t, res.OK)
	assert.Equal(t, map[string]any{"key": "ENBDX"}, res.Data)
	assert.EqualValues(t, 1, echo.calls.Load())
}

func TestRegistry_Invoke_ValidationFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing required": `{}`,
		"null required":    `{"key":null}`,
		"unknown field":    `{"key":"A","other":1}`,
		"not an object":    `[1,2]`,
		"malformed":        `{"key":`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := NewRegistry(zerolog.Nop())
			echo := newEcho("a")
			require.NoError(t, r.Register(echo))

			res := r.Invoke(context.Background(), "a", json.RawMessage(input))
			assert.False(t, res.OK)
			assert.Nil(t, res.Data)
			assert.Contains(t, res.Message, "invalid input")
			assert.Zero(t, echo.calls.Load(), "tool must not run on invalid input")
		})
	}
}

func TestRegistry_Invoke_UnknownTool(t *testing.T) {
	t.Parallel()

	res := NewRegistry(zerolog.Nop()).Invoke(context.Background(), "nope", nil)
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "tool not registered")
}

func TestValidateAgainstSchema_EmptySchemaAcceptsObjects(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateAgainstSchema(json.RawMessage(`{"x":1}`), nil))
	assert.ErrorIs(t, ValidateAgainstSchema(json.RawMessage(`"x"`), nil), ErrInvalidInput)
}

func TestNormalizeKeys(t *testing.T) {
	t.Parallel()

	got := normalizeKeys(json.RawMessage(`"ENBDX"`), "project_key", nil)
	assert.JSONEq(t, `{"project_key":"ENBDX"}`, string(got))

	got = normalizeKeys(json.RawMessage(`{"input":"ENBDX"}`), "", map[string]string{"input": "project_key"})
	assert.JSONEq(t, `{"project_key":"ENBDX"}`, string(got))

	// canonical key wins over an alias
	got = normalizeKeys(json.RawMessage(`{"input":"A","project_key":"B"}`), "", map[string]string{"input": "project_key"})
	assert.JSONEq(t, `{"project_key":"B"}`, string(got))

	raw := json.RawMessage(`[1]`)
	assert.Equal(t, raw, normalizeKeys(raw, "", map[string]string{"a": "b"}))
}

func TestDecodeInput_ReportsJSONFieldNames(t *testing.T) {
	t.Parallel()

	var in createParams
	err := decodeInput(json.RawMessage(`{"project":"ENBDX"}`), &in)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "summary is required")
	assert.Contains(t, err.Error(), "description is required")
}

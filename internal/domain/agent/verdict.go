package agent

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrNoJSONObject = errors.New("no JSON object in completion")
	ErrNoTool       = errors.New("verdict names no tool")
)

// Verdict is the model's tool choice.
type Verdict struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// ExtractJSONObject returns the first balanced top-level {...} block in text.
// Braces inside JSON strings are ignored.
func ExtractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseVerdict extracts and decodes the first JSON object in a completion.
// It returns the decoded object even when it names no tool.
func ParseVerdict(text string) (Verdict, map[string]any, error) {
	block, ok := ExtractJSONObject(text)
	if !ok {
		return Verdict{}, nil, ErrNoJSONObject
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(block), &obj); err != nil {
		return Verdict{}, nil, err
	}

	var v Verdict
	if err := json.Unmarshal([]byte(block), &v); err != nil {
		// "tool" present but not a string
		return Verdict{}, obj, ErrNoTool
	}
	v.Tool = strings.TrimSpace(v.Tool)
	if v.Tool == "" {
		return Verdict{}, obj, ErrNoTool
	}
	if len(v.Input) == 0 || string(v.Input) == "null" {
		v.Input = json.RawMessage(`{}`)
	}
	return v, obj, nil
}

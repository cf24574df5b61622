package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

const promptHeader = `You are a Jira assistant. You have access to these tools:
`

const promptRules = `
Your job:
- Analyze the user query and choose the one tool that serves it.
- Extract every required input value from the query.
- Respond with exactly one JSON object and nothing else, in this format:
  {"tool": "<tool name>", "input": { ...tool-specific input fields... }}
- Use only the tool names listed above. Output must be valid JSON: no comments, no markdown, no extra text.`

// BuildReasoningPrompt renders the system prompt listing every tool with the
// JSON input it expects.
func BuildReasoningPrompt(catalog []tool.Descriptor) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for i, d := range catalog {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   Expected input JSON: %s\n", i+1, d.Name, d.Description, exampleInput(d.InputSchema))
	}
	b.WriteString(promptRules)
	return b.String()
}

// UserPrompt wraps the raw query for the user turn.
func UserPrompt(query string) string {
	return fmt.Sprintf("User query:\n%q", strings.TrimSpace(query))
}

// exampleInput renders a schema as a JSON example, e.g. {"project_key":"string (required)"}.
func exampleInput(schemaRaw json.RawMessage) string {
	var schema map[string]any
	if err := json.Unmarshal(schemaRaw, &schema); err != nil {
		return "{}"
	}
	b, err := json.Marshal(exampleValue(schema))
	if err != nil {
		return "{}"
	}
	return string(b)
}

func exampleValue(schema map[string]any) any {
	typ, _ := schema["type"].(string)
	switch typ {
	case "object":
		props, _ := schema["properties"].(map[string]any)
		required := map[string]bool{}
		if arr, ok := schema["required"].([]any); ok {
			for _, r := range arr {
				if s, ok := r.(string); ok {
					required[s] = true
				}
			}
		}
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		out := make(map[string]any, len(props))
		for _, name := range names {
			sub, _ := props[name].(map[string]any)
			v := exampleValue(sub)
			if s, ok := v.(string); ok && required[name] {
				v = s + " (required)"
			}
			out[name] = v
		}
		return out
	case "array":
		items, _ := schema["items"].(map[string]any)
		return []any{exampleValue(items)}
	case "":
		return "any"
	default:
		return typ
	}
}

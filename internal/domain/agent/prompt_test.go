package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

func TestBuildReasoningPrompt_ListsEveryTool(t *testing.T) {
	t.Parallel()

	catalog := []tool.Descriptor{
		{
			Name:        "fetch_jira_tickets",
			Description: "Fetch tickets for a project.",
			InputSchema: json.RawMessage(`{"type":"object","required":["project_key"],"properties":{"project_key":{"type":"string"}}}`),
		},
		{
			Name:        "bulk_create_jira_tickets",
			Description: "Create several tickets.",
			InputSchema: json.RawMessage(`{"type":"object","required":["issues"],"properties":{"issues":{"type":"array","items":{"type":"object","properties":{"summary":{"type":"string"}}}}}}`),
		},
	}

	p := BuildReasoningPrompt(catalog)
	assert.True(t, strings.HasPrefix(p, "You are a Jira assistant."))
	assert.Contains(t, p, "1. fetch_jira_tickets\n   Fetch tickets for a project.\n")
	assert.Contains(t, p, `Expected input JSON: {"project_key":"string (required)"}`)
	assert.Contains(t, p, "2. bulk_create_jira_tickets")
	assert.Contains(t, p, `Expected input JSON: {"issues":[{"summary":"string"}]}`)
	assert.Contains(t, p, `{"tool": "<tool name>", "input":`)
	assert.Less(t, strings.Index(p, "fetch_jira_tickets"), strings.Index(p, "bulk_create_jira_tickets"))
}

func TestBuildReasoningPrompt_BadSchema(t *testing.T) {
	t.Parallel()

	p := BuildReasoningPrompt([]tool.Descriptor{{Name: "odd", Description: "d", InputSchema: json.RawMessage(`not json`)}})
	assert.Contains(t, p, "Expected input JSON: {}")

	p = BuildReasoningPrompt([]tool.Descriptor{{Name: "loose", Description: "d", InputSchema: json.RawMessage(`{"type":"object","properties":{"x":{}}}`)}})
	assert.Contains(t, p, `Expected input JSON: {"x":"any"}`)
}

func TestUserPrompt_QuotesQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "User query:\n\"create ticket \\\"A\\\"\"", UserPrompt(` create ticket "A" `))
}

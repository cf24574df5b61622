package tool

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/matiasleandrokruk/jiraagent/internal/infra/jira"
)

const (
	BuiltinFetchJiraTickets      = "fetch_jira_tickets"
	BuiltinCreateJiraTicket      = "create_jira_ticket"
	BuiltinBulkCreateJiraTickets = "bulk_create_jira_tickets"
	BuiltinJiraDebug             = "jira_debug"
)

// JiraClient is the part of *jira.Client the built-in tools call.
type JiraClient interface {
	Configured() error
	Environment() map[string]bool
	BrowseURL(key string) string
	EpicNameField() string
	CreateIssue(ctx context.Context, in jira.IssueInput) (*jira.CreatedIssue, error)
	BulkCreate(ctx context.Context, in []jira.IssueInput) (*jira.BulkResult, error)
	SearchProject(ctx context.Context, projectKey string) (*jira.SearchResult, error)
	Projects(ctx context.Context) ([]jira.Project, error)
	Myself(ctx context.Context) (*jira.User, error)
	ServerStatus(ctx context.Context) (int, error)
}

var (
	fetchSchema = json.RawMessage(`{"type":"object","required":["project_key"],"properties":{` +
		`"project_key":{"type":"string","description":"Jira project key, e.g. ENBDX"}}}`)

	createSchema = json.RawMessage(`{"type":"object","required":["project","summary","description"],"properties":{` +
		`"project":{"type":"string","description":"Jira project key, e.g. ENBDX"},` +
		`"summary":{"type":"string","description":"Title of the issue"},` +
		`"description":{"type":"string","description":"Detailed description"},` +
		`"issuetype":{"type":"string","description":"Issue type: Task, Bug, Story or Epic (default Task)"},` +
		`"priority":{"type":"string","description":"Priority name, e.g. High"},` +
		`"assignee":{"type":"string","description":"Assignee username"},` +
		`"acceptance_criteria":{"type":"string","description":"One criterion per line"}}}`)

	bulkSchema = json.RawMessage(`{"type":"object","required":["issues"],"properties":{` +
		`"issues":{"type":"array","minItems":1,"items":{"type":"object","required":["project","summary"],"properties":{` +
		`"project":{"type":"string"},"summary":{"type":"string"},"description":{"type":"string"},` +
		`"issuetype":{"type":"string"},"epic_name":{"type":"string"},"acceptance_criteria":{"type":"string"}}}}}}`)

	debugSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"input":{"type":"string","description":"Optional, ignored"}}}`)
)

// RegisterJiraTools registers the fixed Jira tool set.
func RegisterJiraTools(registry *Registry, client JiraClient) error {
	if client == nil {
		return errors.New("register jira tools: nil client")
	}
	registrations := []Tool{
		NewFetchTicketsTool(client),
		NewCreateTicketTool(client),
		NewBulkCreateTool(client),
		NewDebugTool(client),
	}
	for _, t := range registrations {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

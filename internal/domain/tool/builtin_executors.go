package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/matiasleandrokruk/jiraagent/internal/infra/jira"
)

const (
	defaultIssueType = "Task"
	statusCreated    = "Created"
	unassigned       = "Unassigned"
)

// ─── fetch_jira_tickets ─────────────────────────────────────────────────────

type FetchTicketsTool struct{ client JiraClient }

func NewFetchTicketsTool(client JiraClient) *FetchTicketsTool {
	return &FetchTicketsTool{client: client}
}

type fetchParams struct {
	ProjectKey string `json:"project_key" validate:"required,max=64"`
}

// TicketSummary is one row of a fetch result.
type TicketSummary struct {
	Key       string `json:"key"`
	Summary   string `json:"summary"`
	IssueType string `json:"issue_type,omitempty"`
	Status    string `json:"status"`
	Assignee  string `json:"assignee"`
	URL       string `json:"url,omitempty"`
}

func (t *FetchTicketsTool) Name() string { return BuiltinFetchJiraTickets }
func (t *FetchTicketsTool) Description() string {
	return "Fetch all Jira tickets for a given project key."
}
func (t *FetchTicketsTool) InputSchema() json.RawMessage { return fetchSchema }

// NormalizeInput accepts {"input": "KEY"}, {"projectKey": "KEY"} or a bare "KEY".
func (t *FetchTicketsTool) NormalizeInput(raw json.RawMessage) json.RawMessage {
	return normalizeKeys(raw, "project_key", map[string]string{
		"input":      "project_key",
		"projectKey": "project_key",
		"project":    "project_key",
	})
}

func (t *FetchTicketsTool) Invoke(ctx context.Context, input json.RawMessage) Result {
	var in fetchParams
	if err := decodeInput(input, &in); err != nil {
		return Failf(t.Name(), err)
	}
	key := strings.ToUpper(strings.TrimSpace(in.ProjectKey))

	res, err := t.client.SearchProject(ctx, key)
	if err != nil {
		return Failf(t.Name(), fmt.Errorf("fetch tickets for %s: %w", key, err))
	}

	issues := make([]TicketSummary, 0, len(res.Issues))
	for _, issue := range res.Issues {
		issues = append(issues, t.summarize(issue))
	}
	return OK(map[string]any{
		"project_key": key,
		"total":       res.Total,
		"issues":      issues,
	})
}

func (t *FetchTicketsTool) summarize(issue jira.Issue) TicketSummary {
	out := TicketSummary{
		Key:      issue.Key,
		Summary:  issue.Fields.Summary,
		Assignee: unassigned,
		URL:      t.client.BrowseURL(issue.Key),
	}
	if issue.Fields.Status != nil {
		out.Status = issue.Fields.Status.Name
	}
	if issue.Fields.IssueType != nil {
		out.IssueType = issue.Fields.IssueType.Name
	}
	if issue.Fields.Assignee != nil && issue.Fields.Assignee.DisplayName != "" {
		out.Assignee = issue.Fields.Assignee.DisplayName
	}
	return out
}

// ─── create_jira_ticket ─────────────────────────────────────────────────────

type CreateTicketTool struct{ client JiraClient }

func NewCreateTicketTool(client JiraClient) *CreateTicketTool {
	return &CreateTicketTool{client: client}
}

type createParams struct {
	Project            string `json:"project" validate:"required,max=64"`
	Summary            string `json:"summary" validate:"required,max=255"`
	Description        string `json:"description" validate:"required"`
	IssueType          string `json:"issuetype"`
	Priority           string `json:"priority"`
	Assignee           string `json:"assignee"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
}

// CreatedTicket is the result of a successful create.
type CreatedTicket struct {
	Key    string `json:"key"`
	ID     string `json:"id,omitempty"`
	Self   string `json:"self,omitempty"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status"`
}

func (t *CreateTicketTool) Name() string { return BuiltinCreateJiraTicket }
func (t *CreateTicketTool) Description() string {
	return "Create a new Jira ticket in a specified project."
}
func (t *CreateTicketTool) InputSchema() json.RawMessage { return createSchema }

func (t *CreateTicketTool) NormalizeInput(raw json.RawMessage) json.RawMessage {
	return normalizeKeys(raw, "", map[string]string{
		"issueType":          "issuetype",
		"issue_type":         "issuetype",
		"project_key":        "project",
		"title":              "summary",
		"acceptanceCriteria": "acceptance_criteria",
	})
}

func (t *CreateTicketTool) Invoke(ctx context.Context, input json.RawMessage) Result {
	var in createParams
	if err := decodeInput(input, &in); err != nil {
		return Failf(t.Name(), err)
	}

	issue := jira.IssueInput{
		Project:     strings.ToUpper(strings.TrimSpace(in.Project)),
		Summary:     strings.TrimSpace(in.Summary),
		Description: withAcceptanceCriteria(in.Description, in.AcceptanceCriteria),
		IssueType:   canonicalIssueType(in.IssueType),
		Priority:    strings.TrimSpace(in.Priority),
		Assignee:    strings.TrimSpace(in.Assignee),
	}

	created, err := t.client.CreateIssue(ctx, issue)
	if err != nil {
		return Failf(t.Name(), fmt.Errorf("create ticket in %s: %w", issue.Project, err))
	}
	return OK(CreatedTicket{
		Key:    created.Key,
		ID:     created.ID,
		Self:   created.Self,
		URL:    t.client.BrowseURL(created.Key),
		Status: statusCreated,
	})
}

// ─── bulk_create_jira_tickets ───────────────────────────────────────────────

type BulkCreateTool struct{ client JiraClient }

func NewBulkCreateTool(client JiraClient) *BulkCreateTool {
	return &BulkCreateTool{client: client}
}

type bulkParams struct {
	Issues []bulkIssueParams `json:"issues" validate:"required,min=1,max=50,dive"`
}

type bulkIssueParams struct {
	Project            string `json:"project" validate:"required,max=64"`
	Summary            string `json:"summary" validate:"required,max=255"`
	Description        string `json:"description"`
	IssueType          string `json:"issuetype"`
	EpicName           string `json:"epic_name"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
}

// BulkFailure reports one rejected element of a bulk create.
type BulkFailure struct {
	Index   int    `json:"index"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (t *BulkCreateTool) Name() string { return BuiltinBulkCreateJiraTickets }
func (t *BulkCreateTool) Description() string {
	return "Create multiple Jira tickets in one request."
}
func (t *BulkCreateTool) InputSchema() json.RawMessage { return bulkSchema }

// NormalizeInput accepts a bare array of issues and per-issue key aliases.
func (t *BulkCreateTool) NormalizeInput(raw json.RawMessage) json.RawMessage {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		raw, _ = json.Marshal(map[string]any{"issues": list})
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return raw
	}
	issues, ok := obj["issues"].([]any)
	if !ok {
		return raw
	}
	for _, item := range issues {
		if m, ok := item.(map[string]any); ok {
			renameAliases(m, map[string]string{
				"issueType":          "issuetype",
				"issue_type":         "issuetype",
				"project_key":        "project",
				"epicName":           "epic_name",
				"acceptanceCriteria": "acceptance_criteria",
			})
		}
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return raw
	}
	return out
}

func (t *BulkCreateTool) Invoke(ctx context.Context, input json.RawMessage) Result {
	var in bulkParams
	if err := decodeInput(input, &in); err != nil {
		return Failf(t.Name(), err)
	}

	epicField := t.client.EpicNameField()
	issues := make([]jira.IssueInput, 0, len(in.Issues))
	for _, p := range in.Issues {
		issue := jira.IssueInput{
			Project:     strings.ToUpper(strings.TrimSpace(p.Project)),
			Summary:     strings.TrimSpace(p.Summary),
			Description: withAcceptanceCriteria(p.Description, p.AcceptanceCriteria),
			IssueType:   canonicalIssueType(p.IssueType),
		}
		if issue.IssueType == "Epic" && p.EpicName != "" && epicField != "" {
			issue.Custom = map[string]any{epicField: p.EpicName}
		}
		issues = append(issues, issue)
	}

	res, err := t.client.BulkCreate(ctx, issues)
	if err != nil {
		return Failf(t.Name(), fmt.Errorf("bulk create %d tickets: %w", len(issues), err))
	}

	created := make([]CreatedTicket, 0, len(res.Issues))
	for _, c := range res.Issues {
		created = append(created, CreatedTicket{
			Key: c.Key, ID: c.ID, Self: c.Self, URL: t.client.BrowseURL(c.Key), Status: statusCreated,
		})
	}
	failures := make([]BulkFailure, 0, len(res.Errors))
	for _, e := range res.Errors {
		failures = append(failures, BulkFailure{
			Index: e.FailedElementNumber, Status: e.Status, Message: e.ElementErrors.String(),
		})
	}

	if len(created) == 0 && len(failures) > 0 {
		msgs := make([]string, 0, len(failures))
		for _, f := range failures {
			msgs = append(msgs, fmt.Sprintf("#%d (%d): %s", f.Index, f.Status, f.Message))
		}
		return Fail(fmt.Sprintf("%s: no tickets created: %s", t.Name(), strings.Join(msgs, "; ")))
	}

	return OK(map[string]any{
		"created": created,
		"errors":  failures,
	})
}

// ─── jira_debug ─────────────────────────────────────────────────────────────

type DebugTool struct{ client JiraClient }

func NewDebugTool(client JiraClient) *DebugTool { return &DebugTool{client: client} }

func (t *DebugTool) Name() string { return BuiltinJiraDebug }
func (t *DebugTool) Description() string {
	return "Debug Jira connection and authentication issues."
}
func (t *DebugTool) InputSchema() json.RawMessage { return debugSchema }

func (t *DebugTool) NormalizeInput(raw json.RawMessage) json.RawMessage {
	return normalizeKeys(raw, "input", nil)
}

// Invoke checks configuration, reachability (/status), authentication
// (/myself) and project visibility, in that order.
func (t *DebugTool) Invoke(ctx context.Context, _ json.RawMessage) Result {
	env := make(map[string]string)
	for k, present := range t.client.Environment() {
		env[k] = "missing"
		if present {
			env[k] = "set"
		}
	}

	if err := t.client.Configured(); err != nil {
		return Failf(t.Name(), err)
	}

	code, err := t.client.ServerStatus(ctx)
	if err != nil {
		return Failf(t.Name(), fmt.Errorf("could not connect to Jira server: %w", err))
	}

	me, err := t.client.Myself(ctx)
	if err != nil {
		return Failf(t.Name(), fmt.Errorf("authentication failed: %w", err))
	}

	report := map[string]any{
		"message":        "Jira connection diagnostic complete",
		"environment":    env,
		"connection":     fmt.Sprintf("connected (HTTP %d)", code),
		"authentication": "ok",
		"myself":         me,
	}

	projects, err := t.client.Projects(ctx)
	if err != nil {
		report["projects_error"] = err.Error()
		if code := jira.StatusCode(err); code != 0 {
			report["projects_status"] = code
		}
	} else {
		refs := make([]map[string]string, 0, len(projects))
		for _, p := range projects {
			refs = append(refs, map[string]string{"key": p.Key, "name": p.Name})
		}
		report["projects"] = refs
	}
	return OK(report)
}

// ─── helpers ────────────────────────────────────────────────────────────────

var listItemPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

// withAcceptanceCriteria appends criteria as a numbered wiki-markup list.
func withAcceptanceCriteria(description, criteria string) string {
	description = strings.TrimSpace(description)
	var items []string
	for _, line := range strings.Split(criteria, "\n") {
		item := strings.TrimSpace(listItemPrefix.ReplaceAllString(line, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return description
	}

	var b strings.Builder
	b.WriteString(description)
	if description != "" {
		b.WriteString("\n\n")
	}
	b.WriteString("h2. Acceptance Criteria")
	for _, item := range items {
		b.WriteString("\n# ")
		b.WriteString(item)
	}
	return b.String()
}

var knownIssueTypes = map[string]string{
	"task":     "Task",
	"bug":      "Bug",
	"story":    "Story",
	"epic":     "Epic",
	"sub-task": "Sub-task",
	"subtask":  "Sub-task",
}

// canonicalIssueType fixes the case of standard types and keeps custom ones as given.
func canonicalIssueType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultIssueType
	}
	if known, ok := knownIssueTypes[strings.ToLower(s)]; ok {
		return known
	}
	return s
}

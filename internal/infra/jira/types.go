package jira

// IssueInput is the subset of issue fields this service writes.
type IssueInput struct {
	Project     string
	Summary     string
	Description string
	IssueType   string
	Priority    string
	Assignee    string
	// Custom carries extra fields keyed by Jira field id (e.g. customfield_10104).
	Custom map[string]any
}

func (in IssueInput) fields() map[string]any {
	f := map[string]any{
		"project":     map[string]string{"key": in.Project},
		"summary":     in.Summary,
		"description": in.Description,
		"issuetype":   map[string]string{"name": in.IssueType},
	}
	if in.Priority != "" {
		f["priority"] = map[string]string{"name": in.Priority}
	}
	if in.Assignee != "" {
		f["assignee"] = map[string]string{"name": in.Assignee}
	}
	for k, v := range in.Custom {
		f[k] = v
	}
	return f
}

type issueUpdate struct {
	Fields map[string]any `json:"fields"`
}

// CreatedIssue is the body of a successful create.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// BulkResult is the body of POST /rest/api/2/issue/bulk. Jira may create some
// issues and reject others in the same call.
type BulkResult struct {
	Issues []CreatedIssue `json:"issues"`
	Errors []BulkError    `json:"errors"`
}

type BulkError struct {
	Status              int           `json:"status"`
	FailedElementNumber int           `json:"failedElementNumber"`
	ElementErrors       ErrorEnvelope `json:"elementErrors"`
}

// ErrorEnvelope is Jira's standard error body.
type ErrorEnvelope struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// SearchResult is the body of GET /rest/api/2/search.
type SearchResult struct {
	Total  int     `json:"total"`
	Issues []Issue `json:"issues"`
}

type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	Summary   string    `json:"summary"`
	Status    *NamedRef `json:"status"`
	IssueType *NamedRef `json:"issuetype"`
	Assignee  *UserRef  `json:"assignee"`
}

type NamedRef struct {
	Name string `json:"name"`
}

type UserRef struct {
	DisplayName string `json:"displayName"`
}

type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// User is the body of GET /rest/api/2/myself.
type User struct {
	Name         string `json:"name,omitempty"`
	Key          string `json:"key,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
	DisplayName  string `json:"displayName"`
	Active       bool   `json:"active"`
}

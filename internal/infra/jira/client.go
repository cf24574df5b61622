// Package jira is a small client for the Jira REST API v2 endpoints the
// agent tools call.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	apiPrefix         = "/rest/api/2"
	mimeJSON          = "application/json"
	defaultMaxResults = 100
	defaultTimeout    = 10 * time.Second
)

// Config holds the connection settings. Credentials are tried in order:
// User/Password, then Email/APIToken, then the pre-encoded AuthToken.
type Config struct {
	BaseURL       string
	User          string
	Password      string
	Email         string
	APIToken      string
	AuthToken     string
	EpicNameField string
	MaxResults    int
	Timeout       time.Duration
}

// Client calls Jira. It holds no per-request state and is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, apiPrefix)
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

// BaseURL returns the normalized server root.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// EpicNameField returns the custom field id that holds an epic's name.
func (c *Client) EpicNameField() string { return c.cfg.EpicNameField }

// BrowseURL is the human-facing link to an issue.
func (c *Client) BrowseURL(key string) string {
	if c.cfg.BaseURL == "" || key == "" {
		return ""
	}
	return c.cfg.BaseURL + "/browse/" + key
}

// Environment reports which connection settings are present.
func (c *Client) Environment() map[string]bool {
	return map[string]bool{
		"JIRA_BASE_URL":   c.cfg.BaseURL != "",
		"JIRA_USER":       c.cfg.User != "",
		"JIRA_PASSWORD":   c.cfg.Password != "",
		"JIRA_EMAIL":      c.cfg.Email != "",
		"JIRA_API_TOKEN":  c.cfg.APIToken != "",
		"JIRA_AUTH_TOKEN": c.cfg.AuthToken != "",
	}
}

// Configured returns an error wrapping ErrNotConfigured that names what is missing.
func (c *Client) Configured() error {
	var missing []string
	if c.cfg.BaseURL == "" {
		missing = append(missing, "JIRA_BASE_URL")
	}
	if c.authHeader() == "" {
		missing = append(missing, "JIRA_USER/JIRA_PASSWORD (or JIRA_EMAIL/JIRA_API_TOKEN, JIRA_AUTH_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Client) authHeader() string {
	switch {
	case c.cfg.User != "" && c.cfg.Password != "":
		return "Basic " + basicToken(c.cfg.User, c.cfg.Password)
	case c.cfg.Email != "" && c.cfg.APIToken != "":
		return "Basic " + basicToken(c.cfg.Email, c.cfg.APIToken)
	case c.cfg.AuthToken != "":
		return "Basic " + c.cfg.AuthToken
	default:
		return ""
	}
}

func basicToken(user, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + secret))
}

// CreateIssue performs POST /rest/api/2/issue.
func (c *Client) CreateIssue(ctx context.Context, in IssueInput) (*CreatedIssue, error) {
	var out CreatedIssue
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/issue", nil, issueUpdate{Fields: in.fields()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkCreate performs POST /rest/api/2/issue/bulk.
func (c *Client) BulkCreate(ctx context.Context, in []IssueInput) (*BulkResult, error) {
	updates := make([]issueUpdate, 0, len(in))
	for _, issue := range in {
		updates = append(updates, issueUpdate{Fields: issue.fields()})
	}
	body := map[string]any{"issueUpdates": updates}

	var out BulkResult
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/issue/bulk", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a JQL query. maxResults <= 0 uses the configured limit.
func (c *Client) Search(ctx context.Context, jql string, maxResults int) (*SearchResult, error) {
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}
	q := url.Values{}
	q.Set("jql", jql)
	q.Set("maxResults", strconv.Itoa(maxResults))
	q.Set("fields", "summary,status,assignee,issuetype")

	var out SearchResult
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchProject lists a project's issues, newest first.
func (c *Client) SearchProject(ctx context.Context, projectKey string) (*SearchResult, error) {
	return c.Search(ctx, ProjectJQL(projectKey), 0)
}

// jqlQuote escapes backslashes and double quotes inside a quoted JQL literal.
var jqlQuote = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ProjectJQL quotes the key so reserved words and odd input stay a literal.
func ProjectJQL(projectKey string) string {
	return fmt.Sprintf(`project = "%s" ORDER BY created DESC`, jqlQuote.Replace(projectKey))
}

// Projects performs GET /rest/api/2/project.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/project", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Myself performs GET /rest/api/2/myself, which only succeeds with valid credentials.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/myself", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerStatus calls the unauthenticated GET /status endpoint and returns the
// HTTP status. Any answer counts as reachable; only transport errors fail.
func (c *Client) ServerStatus(ctx context.Context) (int, error) {
	if c.cfg.BaseURL == "" {
		return 0, fmt.Errorf("%w: missing JIRA_BASE_URL", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/status", nil)
	if err != nil {
		return 0, fmt.Errorf("jira: build request: %w", err)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeRequest("status", 0, start)
		return 0, fmt.Errorf("jira: GET /status: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)
	observeRequest("status", resp.StatusCode, start)
	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.Configured(); err != nil {
		return err
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jira: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("jira: build request: %w", err)
	}
	req.Header.Set("Accept", mimeJSON)
	req.Header.Set("Authorization", c.authHeader())
	if body != nil {
		req.Header.Set("Content-Type", mimeJSON)
	}

	endpoint := endpointLabel(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeRequest(endpoint, 0, start)
		return fmt.Errorf("jira: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	observeRequest(endpoint, resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("jira: read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("jira: decode %s %s: %w", method, path, err)
	}
	return nil
}

// endpointLabel keeps metric cardinality fixed: "/rest/api/2/issue/bulk" -> "issue/bulk".
func endpointLabel(path string) string {
	return strings.TrimPrefix(path, apiPrefix+"/")
}

package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotConfigured means the base URL or credentials are missing.
var ErrNotConfigured = errors.New("jira: not configured")

const maxErrorBody = 512

// APIError is a non-2xx answer from Jira.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := e.detail()
	if msg == "" {
		return fmt.Sprintf("jira: %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("jira: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// detail prefers Jira's structured error messages over the raw body.
func (e *APIError) detail() string {
	var env ErrorEnvelope
	if err := json.Unmarshal([]byte(e.Body), &env); err == nil {
		if s := env.String(); s != "" {
			return s
		}
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return body
}

// StatusCode extracts the HTTP status from an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func (e ErrorEnvelope) String() string {
	parts := append([]string(nil), e.ErrorMessages...)
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+e.Errors[k])
	}
	return strings.Join(parts, "; ")
}

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_WritesOneLinePerRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setAuditSubject(r.Context(), "ops-bot")
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError) // superfluous, ignored
	})
	h := chimw.RequestID(AuditLog(logger)(inner))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/credentials", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/api/v1/credentials", line["path"])
	assert.Equal(t, "create_credential", line["action"])
	assert.Equal(t, float64(201), line["status"])
	assert.Equal(t, "success", line["outcome"])
	assert.Equal(t, "ops-bot", line["subject"])
	assert.NotEmpty(t, line["request_id"])
	assert.Equal(t, "http request", line["message"])
}

func TestAuditLog_LevelFollowsStatus(t *testing.T) {
	t.Parallel()

	for status, level := range map[int]string{200: "info", 404: "warn", 401: "warn", 503: "error"} {
		var buf bytes.Buffer
		h := AuditLog(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, level, line["level"], "status %d", status)
	}
}

func TestAuditLog_ImplicitOK(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := AuditLog(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestOutcomeFromStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", outcomeFromStatus(200))
	assert.Equal(t, "success", outcomeFromStatus(204))
	assert.Equal(t, "denied", outcomeFromStatus(401))
	assert.Equal(t, "denied", outcomeFromStatus(403))
	assert.Equal(t, "error", outcomeFromStatus(409))
	assert.Equal(t, "error", outcomeFromStatus(500))
}

func TestActionFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/health", "get_request"},
		{http.MethodPost, "/api/v1/credentials", "create_credential"},
		{http.MethodGet, "/api/v1/credentials", "list_credentials"},
		{http.MethodGet, "/api/v1/credentials/ENBDX", "get_credential"},
		{http.MethodPut, "/api/v1/credentials/ENBDX", "update_credential"},
		{http.MethodDelete, "/api/v1/credentials/ENBDX", "delete_credential"},
		{http.MethodPost, "/api/v1/jira/interact", "post_jira_interact"},
		{http.MethodGet, "/api/v1/jira/debug", "get_jira_debug"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, actionFromRequest(tt.method, tt.path), "%s %s", tt.method, tt.path)
	}
}

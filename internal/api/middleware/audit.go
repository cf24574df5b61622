package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AuditLog writes one structured line per request. It replaces chi's text
// logger and must run after middleware.RequestID.
func AuditLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			entry := &auditEntry{}
			start := time.Now()
			next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), auditKey{}, entry)))

			status := recorder.statusCode
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			} else if status >= http.StatusBadRequest {
				event = logger.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("action", actionFromRequest(r.Method, r.URL.Path)).
				Int("status", status).
				Str("outcome", outcomeFromStatus(status)).
				Str("subject", entry.subject).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// auditEntry lets middleware further down the chain annotate the log line.
type auditEntry struct {
	subject string
}

type auditKey struct{}

func setAuditSubject(ctx context.Context, subject string) {
	if e, ok := ctx.Value(auditKey{}).(*auditEntry); ok {
		e.subject = subject
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func outcomeFromStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 400:
		return "success"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "denied"
	default:
		return "error"
	}
}

// actionFromRequest names the operation, e.g. "create_credential" or
// "post_jira_interact". Paths outside /api/v1 map to "<method>_request".
func actionFromRequest(method, path string) string {
	m := strings.ToLower(method)
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 || segments[0] != "api" || segments[1] != "v1" {
		return m + "_request"
	}

	if segments[2] == "credentials" {
		if len(segments) == 3 {
			switch method {
			case http.MethodPost:
				return "create_credential"
			case http.MethodGet:
				return "list_credentials"
			}
			return m + "_credentials"
		}
		switch method {
		case http.MethodGet:
			return "get_credential"
		case http.MethodPut, http.MethodPatch:
			return "update_credential"
		case http.MethodDelete:
			return "delete_credential"
		}
		return m + "_credential"
	}
	return m + "_" + strings.Join(segments[2:], "_")
}

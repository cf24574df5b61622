// Package api wires the chi router: public health and metrics routes plus
// the /api/v1 group, which requires a bearer token when a signer is set.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/jiraagent/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/jiraagent/internal/api/middleware"
	"github.com/matiasleandrokruk/jiraagent/internal/domain/agent"
	"github.com/matiasleandrokruk/jiraagent/internal/domain/credential"
	pkgauth "github.com/matiasleandrokruk/jiraagent/pkg/auth"
)

// Deps are the services behind the routes. Credentials and Tokens are
// optional: nil disables the credential API (503) and bearer auth.
type Deps struct {
	Dispatcher  *agent.Dispatcher
	Credentials *credential.Service
	Tokens      *pkgauth.Signer
	Logger      zerolog.Logger
}

// NewRouter creates the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.AuditLog(deps.Logger))
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES =====

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if deps.Dispatcher != nil {
			body["reasoning_session"] = deps.Dispatcher.Sessions().Status()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(body) //nolint:errcheck
	})
	r.Handle("/metrics", promhttp.Handler())

	// ===== API ROUTES =====

	var store handlers.CredentialStore
	if deps.Credentials != nil {
		store = deps.Credentials
	}
	jiraHandler := handlers.NewJiraHandler(deps.Dispatcher)
	credentialHandler := handlers.NewCredentialHandler(store)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Tokens != nil {
			r.Use(apmiddleware.AuthMiddleware(deps.Tokens))
		}

		r.Route("/jira", func(r chi.Router) {
			r.Post("/interact", jiraHandler.Interact) // POST /api/v1/jira/interact
			r.Get("/debug", jiraHandler.Debug)        // GET /api/v1/jira/debug
			r.Get("/tools", jiraHandler.Tools)        // GET /api/v1/jira/tools
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Post("/", credentialHandler.Create)
			r.Get("/", credentialHandler.List)
			r.Get("/{projectName}", credentialHandler.Get)
			r.Put("/{projectName}", credentialHandler.Update)
			r.Delete("/{projectName}", credentialHandler.Delete)
		})
	})

	return r
}

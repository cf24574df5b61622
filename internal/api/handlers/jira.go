package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/agent"
	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
)

// JiraHandler serves the natural-language Jira endpoints.
type JiraHandler struct {
	dispatcher *agent.Dispatcher
}

func NewJiraHandler(dispatcher *agent.Dispatcher) *JiraHandler {
	return &JiraHandler{dispatcher: dispatcher}
}

type interactRequest struct {
	Query string `json:"query"`
}

// Interact handles POST /api/v1/jira/interact. Anything past request
// validation answers 200 with the normalized body, success or not.
func (h *JiraHandler) Interact(w http.ResponseWriter, r *http.Request) {
	var req interactRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeJSON(w, http.StatusBadRequest, agent.Failure("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, agent.Failure(agent.ErrEmptyQuery.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.dispatcher.Interact(r.Context(), req.Query))
}

// Debug handles GET /api/v1/jira/debug by running the diagnostics tool.
func (h *JiraHandler) Debug(w http.ResponseWriter, r *http.Request) {
	res := h.dispatcher.Registry().Invoke(r.Context(), tool.BuiltinJiraDebug, nil)
	writeJSON(w, http.StatusOK, agent.Normalize(res))
}

// Tools handles GET /api/v1/jira/tools.
func (h *JiraHandler) Tools(w http.ResponseWriter, _ *http.Request) {
	catalog := h.dispatcher.Registry().Catalog()
	writeJSON(w, http.StatusOK, map[string]any{"data": catalog, "meta": map[string]int{"total": len(catalog)}})
}

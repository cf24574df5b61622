package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/credential"
)

// CredentialStore is the part of *credential.Service the handler uses.
type CredentialStore interface {
	Create(ctx context.Context, in credential.CreateInput) (*credential.Credential, error)
	Get(ctx context.Context, projectName string) (*credential.Credential, error)
	List(ctx context.Context) ([]*credential.Credential, error)
	Update(ctx context.Context, projectName string, in credential.UpdateInput) (*credential.Credential, error)
	Delete(ctx context.Context, projectName string) error
}

// CredentialHandler serves /api/v1/credentials. A nil store answers 503.
type CredentialHandler struct {
	store CredentialStore
}

func NewCredentialHandler(store CredentialStore) *CredentialHandler {
	return &CredentialHandler{store: store}
}

const credentialsDisabled = "credential store is disabled: CREDENTIAL_SECRET_KEY is not set"

func (h *CredentialHandler) available(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, credentialsDisabled)
		return false
	}
	return true
}

func (h *CredentialHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var in credential.CreateInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.store.Create(r.Context(), in)
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CredentialHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	items, err := h.store.List(r.Context())
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "meta": map[string]int{"total": len(items)}})
}

func (h *CredentialHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	c, err := h.store.Get(r.Context(), chi.URLParam(r, "projectName"))
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CredentialHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var in credential.UpdateInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.store.Update(r.Context(), chi.URLParam(r, "projectName"), in)
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CredentialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "projectName")); err != nil {
		writeCredentialError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCredentialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, credential.ErrInvalidCredential):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, credential.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, credential.ErrDuplicateProject):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "credential store error")
	}
}

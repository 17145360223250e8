// Package naming serves the naming registry: registration names bound to the
// interface and endpoint of a remote object.
package naming

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/johnwards/ciassoc/internal/api"
	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/store"
)

// Handler serves the naming registry endpoints.
type Handler struct {
	store store.BindingStore
}

// BindInput is the body of a bind request. The name comes from the path.
type BindInput struct {
	Interface string `json:"interface"`
	Endpoint  string `json:"endpoint"`
}

// List returns every binding.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.List(r.Context())
	if err != nil {
		api.WriteStoreError(w, api.CorrelationID(r.Context()), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(bindings))
}

// Lookup returns the binding for the name in the path.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	corrID := api.CorrelationID(r.Context())

	b, err := h.store.Lookup(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNameNotBoundError(err.Error(), corrID))
			return
		}
		api.WriteStoreError(w, corrID, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

// Bind binds the name in the path, replacing any existing binding.
func (h *Handler) Bind(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	corrID := api.CorrelationID(r.Context())

	var in BindInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}
	var details []api.ErrorDetail
	if name == "" {
		details = append(details, api.ErrorDetail{Message: "name is required", Code: "REQUIRED", In: "name"})
	}
	if in.Interface == "" {
		details = append(details, api.ErrorDetail{Message: "interface is required", Code: "REQUIRED", In: "interface"})
	}
	if in.Endpoint == "" {
		details = append(details, api.ErrorDetail{Message: "endpoint is required", Code: "REQUIRED", In: "endpoint"})
	}
	if len(details) > 0 {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid binding", corrID, details))
		return
	}

	b, err := h.store.Bind(r.Context(), domain.Binding{Name: name, Interface: in.Interface, Endpoint: in.Endpoint})
	if err != nil {
		api.WriteStoreError(w, corrID, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("name", b.Name).
		Str("interface", b.Interface).
		Str("endpoint", b.Endpoint).
		Msg("name bound")
	api.WriteJSON(w, http.StatusOK, b)
}

// Unbind removes the binding for the name in the path.
func (h *Handler) Unbind(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	corrID := api.CorrelationID(r.Context())

	if err := h.store.Unbind(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewNameNotBoundError(err.Error(), corrID))
			return
		}
		api.WriteStoreError(w, corrID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

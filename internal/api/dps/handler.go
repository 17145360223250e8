// Package dps serves the Data Persistence Service: session handling, managed
// object lookup by FDN and association creation.
package dps

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/johnwards/ciassoc/internal/api"
	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/store"
)

// Handler serves the DPS endpoints.
type Handler struct {
	objects      store.ManagedObjectStore
	associations store.AssociationStore
	sessions     store.SessionStore
}

// CreateSession opens a new session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.Create(r.Context())
	if err != nil {
		api.WriteStoreError(w, api.CorrelationID(r.Context()), err)
		return
	}
	zerolog.Ctx(r.Context()).Debug().Str("session", id).Msg("session opened")
	api.WriteJSON(w, http.StatusCreated, domain.SessionCreated{SessionID: id})
}

// CloseSession closes the session in the path.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	corrID := api.CorrelationID(r.Context())

	if err := h.sessions.Close(r.Context(), sid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.NewSessionNotFoundError(err.Error(), corrID))
			return
		}
		api.WriteStoreError(w, corrID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activeSession writes an error and returns false unless the session in the
// path is open.
func (h *Handler) activeSession(w http.ResponseWriter, r *http.Request) bool {
	sid := r.PathValue("sid")
	corrID := api.CorrelationID(r.Context())

	ok, err := h.sessions.Active(r.Context(), sid)
	if err != nil {
		api.WriteStoreError(w, corrID, err)
		return false
	}
	if !ok {
		api.WriteError(w, http.StatusNotFound, api.NewSessionNotFoundError("session "+sid+" is not open", corrID))
		return false
	}
	return true
}

// GetMo returns the managed object with the fdn query parameter in the
// bucket query parameter (live when absent).
func (h *Handler) GetMo(w http.ResponseWriter, r *http.Request) {
	if !h.activeSession(w, r) {
		return
	}
	corrID := api.CorrelationID(r.Context())
	q := r.URL.Query()

	fdn := q.Get("fdn")
	if fdn == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("fdn is required", corrID,
			[]api.ErrorDetail{{Message: "fdn is required", Code: "REQUIRED", In: "fdn"}}))
		return
	}

	mo, err := h.objects.GetByFDN(r.Context(), domain.ParseBucket(q.Get("bucket")), fdn)
	if err != nil {
		api.WriteStoreError(w, corrID, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, mo)
}

// AddAssociation creates the association described by the body in the
// bucket query parameter. Adding an existing association succeeds.
func (h *Handler) AddAssociation(w http.ResponseWriter, r *http.Request) {
	if !h.activeSession(w, r) {
		return
	}
	corrID := api.CorrelationID(r.Context())

	var in domain.AddAssociationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}
	var details []api.ErrorDetail
	if in.FromPoID <= 0 {
		details = append(details, api.ErrorDetail{Message: "fromPoId must be positive", Code: "INVALID", In: "fromPoId"})
	}
	if in.ToPoID <= 0 {
		details = append(details, api.ErrorDetail{Message: "toPoId must be positive", Code: "INVALID", In: "toPoId"})
	}
	if in.EndpointName == "" {
		details = append(details, api.ErrorDetail{Message: "endpointName is required", Code: "REQUIRED", In: "endpointName"})
	}
	if len(details) > 0 {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid association", corrID, details))
		return
	}

	bucket := domain.ParseBucket(r.URL.Query().Get("bucket"))
	assoc, err := h.associations.Add(r.Context(), bucket, in.FromPoID, in.ToPoID, in.EndpointName)
	if err != nil {
		api.WriteStoreError(w, corrID, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("bucket", bucket.String()).
		Int64("from", assoc.FromPoID).
		Int64("to", assoc.ToPoID).
		Str("endpoint", assoc.EndpointName).
		Msg("association added")
	api.WriteJSON(w, http.StatusOK, assoc)
}

// ListAssociations returns the associations from the managed object in the
// path.
func (h *Handler) ListAssociations(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())
	poID, err := strconv.ParseInt(r.PathValue("poId"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("poId must be an integer", corrID, nil))
		return
	}

	assocs, err := h.associations.List(r.Context(), domain.ParseBucket(r.URL.Query().Get("bucket")), poID)
	if err != nil {
		api.WriteStoreError(w, corrID, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(assocs))
}

// Package admin serves the reference service's administrative endpoints:
// resetting and seeding data and managing managed objects directly.
package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/johnwards/ciassoc/internal/api"
	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/seed"
	"github.com/johnwards/ciassoc/internal/store"
)

// maxFixtureSize bounds a seed request body.
const maxFixtureSize = 1 << 20

// Handler serves the admin API at /_admin/.
type Handler struct {
	db    *sql.DB
	store *store.Store
}

// dataTableNames lists all data tables in foreign-key-safe deletion order.
var dataTableNames = []string{
	"associations",
	"managed_objects",
	"sessions",
	"naming_bindings",
}

// Reset drops all data from all tables and re-runs seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ResetData(r.Context(), h.store); err != nil {
		api.WriteError(w, http.StatusInternalServerError,
			api.NewInternalError(fmt.Sprintf("failed to reset: %s", err), api.CorrelationID(r.Context())))
		return
	}
	zerolog.Ctx(r.Context()).Info().Msg("data reset")
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData runs the standard seeds without dropping existing data. A YAML
// fixture in the request body is loaded as well.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	corrID := api.CorrelationID(ctx)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxFixtureSize))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("failed to read body", corrID, nil))
		return
	}
	var fx *seed.Fixture
	if len(raw) > 0 {
		fx, err = seed.ParseFixture(raw)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
			return
		}
	}

	if err := seed.Seed(ctx, h.store); err != nil {
		api.WriteError(w, http.StatusInternalServerError,
			api.NewInternalError(fmt.Sprintf("failed to seed: %s", err), corrID))
		return
	}

	var mos []*domain.ManagedObject
	if fx != nil {
		mos, err = seed.Objects(ctx, h.store.Objects, fx)
		if err != nil {
			api.WriteStoreError(w, corrID, err)
			return
		}
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(mos))
}

// CreateMo persists a managed object in the bucket query parameter.
func (h *Handler) CreateMo(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())

	var in domain.CreateManagedObjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}
	if in.FDN == "" {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("fdn is required", corrID,
			[]api.ErrorDetail{{Message: "fdn is required", Code: "REQUIRED", In: "fdn"}}))
		return
	}

	mo, err := h.store.Objects.Create(r.Context(), domain.ParseBucket(r.URL.Query().Get("bucket")), in)
	if err != nil {
		api.WriteStoreError(w, corrID, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, mo)
}

// ListMos returns the managed objects in the bucket query parameter.
func (h *Handler) ListMos(w http.ResponseWriter, r *http.Request) {
	mos, err := h.store.Objects.List(r.Context(), domain.ParseBucket(r.URL.Query().Get("bucket")))
	if err != nil {
		api.WriteStoreError(w, api.CorrelationID(r.Context()), err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.NewCollection(mos))
}

// DeleteMo removes the managed object in the path together with its
// associations.
func (h *Handler) DeleteMo(w http.ResponseWriter, r *http.Request) {
	corrID := api.CorrelationID(r.Context())
	poID, err := strconv.ParseInt(r.PathValue("poId"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("poId must be an integer", corrID, nil))
		return
	}
	if err := h.store.Objects.Delete(r.Context(), domain.ParseBucket(r.URL.Query().Get("bucket")), poID); err != nil {
		api.WriteStoreError(w, corrID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports that the service is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		api.WriteError(w, http.StatusServiceUnavailable,
			api.NewInternalError(fmt.Sprintf("database unavailable: %s", err), api.CorrelationID(r.Context())))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": store.Now()})
}

// ResetData clears all data tables within a transaction and re-seeds.
func ResetData(ctx context.Context, s *store.Store) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range dataTableNames {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil { //nolint:gosec // table names are hardcoded constants
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return seed.Seed(ctx, s)
}

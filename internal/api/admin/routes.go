package admin

import (
	"net/http"

	"github.com/johnwards/ciassoc/internal/store"
)

// RegisterRoutes registers all admin API endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{db: s.DB, store: s}

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /_admin/reset", h.Reset)
	mux.HandleFunc("POST /_admin/seed", h.SeedData)
	mux.HandleFunc("POST /_admin/mos", h.CreateMo)
	mux.HandleFunc("GET /_admin/mos", h.ListMos)
	mux.HandleFunc("DELETE /_admin/mos/{poId}", h.DeleteMo)
}

package naming

import (
	"net/http"

	"github.com/johnwards/ciassoc/internal/store"
)

// RegisterRoutes registers the naming registry endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, s store.BindingStore) {
	h := &Handler{store: s}

	mux.HandleFunc("GET /naming/v1/bindings", h.List)
	mux.HandleFunc("GET /naming/v1/bindings/{name...}", h.Lookup)
	mux.HandleFunc("PUT /naming/v1/bindings/{name...}", h.Bind)
	mux.HandleFunc("DELETE /naming/v1/bindings/{name...}", h.Unbind)
}

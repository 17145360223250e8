package dps

import (
	"net/http"

	"github.com/johnwards/ciassoc/internal/store"
)

// BasePath is where the DPS home is served. The naming registry binds the
// home's registration name to it.
const BasePath = "/dps/v1"

// RegisterRoutes registers the DPS endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{objects: s.Objects, associations: s.Associations, sessions: s.Sessions}

	mux.HandleFunc("POST "+BasePath+"/sessions", h.CreateSession)
	mux.HandleFunc("DELETE "+BasePath+"/sessions/{sid}", h.CloseSession)
	mux.HandleFunc("GET "+BasePath+"/sessions/{sid}/mo", h.GetMo)
	mux.HandleFunc("PUT "+BasePath+"/sessions/{sid}/associations", h.AddAssociation)
	mux.HandleFunc("GET "+BasePath+"/mos/{poId}/associations", h.ListAssociations)
}

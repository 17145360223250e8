package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WriteJSON marshals v as JSON and writes it to w with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

// CollectionResponse is the envelope for list responses.
type CollectionResponse[T any] struct {
	Results []T `json:"results"`
}

// NewCollection wraps results, encoding a nil slice as an empty list.
func NewCollection[T any](results []T) CollectionResponse[T] {
	if results == nil {
		results = []T{}
	}
	return CollectionResponse[T]{Results: results}
}

package api

import (
	"errors"
	"net/http"

	"github.com/johnwards/ciassoc/internal/remote"
	"github.com/johnwards/ciassoc/internal/store"
)

// Error categories. The not-found categories are shared with the client in
// package remote so both sides agree on them.
const (
	CategoryValidationError = "VALIDATION_ERROR"
	CategoryObjectNotFound  = remote.CategoryObjectNotFound
	CategorySessionNotFound = remote.CategorySessionNotFound
	CategoryNameNotBound    = remote.CategoryNameNotBound
	CategoryRouteNotFound   = remote.CategoryRouteNotFound
	CategoryConflict        = "CONFLICT"
	CategoryUnauthorized    = "UNAUTHORIZED"
	CategoryInternalError   = "INTERNAL_ERROR"
)

// Error is the JSON error body returned by every endpoint.
type Error struct {
	Status        string        `json:"status"`
	Message       string        `json:"message"`
	CorrelationID string        `json:"correlationId"`
	Category      string        `json:"category"`
	Errors        []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail represents a single error within an Error.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	In      string `json:"in,omitempty"`
}

func newError(category, message, correlationID string) *Error {
	return &Error{
		Status:        "error",
		Message:       message,
		CorrelationID: correlationID,
		Category:      category,
	}
}

// NewNotFoundError creates a 404 error with the OBJECT_NOT_FOUND category.
func NewNotFoundError(message, correlationID string) *Error {
	return newError(CategoryObjectNotFound, message, correlationID)
}

// NewRouteNotFoundError creates a 404 error for a request no route matches.
func NewRouteNotFoundError(message, correlationID string) *Error {
	return newError(CategoryRouteNotFound, message, correlationID)
}

// NewSessionNotFoundError creates a 404 error for an unknown or closed DPS
// session.
func NewSessionNotFoundError(message, correlationID string) *Error {
	return newError(CategorySessionNotFound, message, correlationID)
}

// NewNameNotBoundError creates a 404 error for a naming lookup miss.
func NewNameNotBoundError(message, correlationID string) *Error {
	return newError(CategoryNameNotBound, message, correlationID)
}

// NewValidationError creates a 400 error with the VALIDATION_ERROR category.
func NewValidationError(message, correlationID string, details []ErrorDetail) *Error {
	e := newError(CategoryValidationError, message, correlationID)
	e.Errors = details
	return e
}

// NewConflictError creates a 409 error with the CONFLICT category.
func NewConflictError(message, correlationID string) *Error {
	return newError(CategoryConflict, message, correlationID)
}

// NewInternalError creates a 500 error.
func NewInternalError(message, correlationID string) *Error {
	return newError(CategoryInternalError, message, correlationID)
}

// WriteError writes an Error as a JSON response with the given HTTP status code.
func WriteError(w http.ResponseWriter, statusCode int, apiErr *Error) {
	WriteJSON(w, statusCode, apiErr)
}

// WriteStoreError maps a store error onto a response: ErrNotFound is a 404,
// ErrConflict a 409 and anything else a 500.
func WriteStoreError(w http.ResponseWriter, corrID string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, NewNotFoundError(err.Error(), corrID))
	case errors.Is(err, store.ErrConflict):
		WriteError(w, http.StatusConflict, NewConflictError(err.Error(), corrID))
	default:
		WriteError(w, http.StatusInternalServerError, NewInternalError(err.Error(), corrID))
	}
}

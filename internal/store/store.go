package store

import (
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with an existing row.
	ErrConflict = errors.New("conflict")
)

// Store holds all sub-stores used by the application.
type Store struct {
	DB           *sql.DB
	Objects      ManagedObjectStore
	Associations AssociationStore
	Bindings     BindingStore
	Sessions     SessionStore
}

// New creates a Store with all sub-stores initialized.
func New(db *sql.DB) *Store {
	return &Store{
		DB:           db,
		Objects:      NewSQLiteManagedObjectStore(db),
		Associations: NewSQLiteAssociationStore(db),
		Bindings:     NewSQLiteBindingStore(db),
		Sessions:     NewSQLiteSessionStore(db),
	}
}

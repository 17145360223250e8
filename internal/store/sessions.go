package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SessionStore tracks the DPS sessions handed out by the service home.
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Active(ctx context.Context, id string) (bool, error)
	Close(ctx context.Context, id string) error
}

// SQLiteSessionStore implements SessionStore backed by SQLite.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStore creates a new SQLiteSessionStore.
func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// Create opens a new session and returns its id.
func (s *SQLiteSessionStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at) VALUES (?, ?)`, id, now(),
	); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Active reports whether the session exists and has not been closed.
func (s *SQLiteSessionStore) Active(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ? AND closed_at IS NULL`, id,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check session %s: %w", id, err)
	}
	return count > 0, nil
}

// Close marks the session closed.
func (s *SQLiteSessionStore) Close(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET closed_at = ? WHERE id = ? AND closed_at IS NULL`, now(), id,
	)
	if err != nil {
		return fmt.Errorf("close session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

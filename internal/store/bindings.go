package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/ciassoc/internal/domain"
)

// BindingStore defines the interface for naming registry persistence.
type BindingStore interface {
	Bind(ctx context.Context, b domain.Binding) (*domain.Binding, error)
	Lookup(ctx context.Context, name string) (*domain.Binding, error)
	List(ctx context.Context) ([]domain.Binding, error)
	Unbind(ctx context.Context, name string) error
}

// SQLiteBindingStore implements BindingStore backed by SQLite.
type SQLiteBindingStore struct {
	db *sql.DB
}

// NewSQLiteBindingStore creates a new SQLiteBindingStore.
func NewSQLiteBindingStore(db *sql.DB) *SQLiteBindingStore {
	return &SQLiteBindingStore{db: db}
}

// Bind creates or replaces the binding for b.Name.
func (s *SQLiteBindingStore) Bind(ctx context.Context, b domain.Binding) (*domain.Binding, error) {
	if b.Name == "" || b.Interface == "" || b.Endpoint == "" {
		return nil, fmt.Errorf("binding requires name, interface and endpoint")
	}
	b.CreatedAt = now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO naming_bindings (name, interface, endpoint, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET interface = excluded.interface, endpoint = excluded.endpoint, created_at = excluded.created_at`,
		b.Name, b.Interface, b.Endpoint, b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", b.Name, err)
	}
	return &b, nil
}

// Lookup returns the binding registered under name.
func (s *SQLiteBindingStore) Lookup(ctx context.Context, name string) (*domain.Binding, error) {
	var b domain.Binding
	err := s.db.QueryRowContext(ctx,
		`SELECT name, interface, endpoint, created_at FROM naming_bindings WHERE name = ?`, name,
	).Scan(&b.Name, &b.Interface, &b.Endpoint, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("name %q not bound: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup %q: %w", name, err)
	}
	return &b, nil
}

// List returns every binding ordered by name.
func (s *SQLiteBindingStore) List(ctx context.Context) ([]domain.Binding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, interface, endpoint, created_at FROM naming_bindings ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Binding
	for rows.Next() {
		var b domain.Binding
		if err := rows.Scan(&b.Name, &b.Interface, &b.Endpoint, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Unbind removes the binding registered under name.
func (s *SQLiteBindingStore) Unbind(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM naming_bindings WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("unbind %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("name %q not bound: %w", name, ErrNotFound)
	}
	return nil
}

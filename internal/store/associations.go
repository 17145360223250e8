package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/johnwards/ciassoc/internal/domain"
)

// AssociationStore defines the interface for association persistence.
type AssociationStore interface {
	Add(ctx context.Context, bucket domain.Bucket, fromID, toID int64, endpoint string) (*domain.Association, error)
	List(ctx context.Context, bucket domain.Bucket, fromID int64) ([]domain.Association, error)
	Remove(ctx context.Context, bucket domain.Bucket, fromID, toID int64, endpoint string) error
}

// SQLiteAssociationStore implements AssociationStore backed by SQLite.
type SQLiteAssociationStore struct {
	db *sql.DB
}

// NewSQLiteAssociationStore creates a new SQLiteAssociationStore.
func NewSQLiteAssociationStore(db *sql.DB) *SQLiteAssociationStore {
	return &SQLiteAssociationStore{db: db}
}

// requireObject returns ErrNotFound when poID is not in the bucket. Query
// failures are returned as they are.
func (s *SQLiteAssociationStore) requireObject(ctx context.Context, bucket domain.Bucket, poID int64) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM managed_objects WHERE bucket = ? AND po_id = ?)`, bucket.Key(), poID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check managed object %d: %w", poID, err)
	}
	if !exists {
		return fmt.Errorf("managed object %d not found in bucket %s: %w", poID, bucket, ErrNotFound)
	}
	return nil
}

// Add records a directed association from fromID to toID under the endpoint
// name. Both objects must exist in the bucket. Adding an association that
// already exists is a no-op.
func (s *SQLiteAssociationStore) Add(ctx context.Context, bucket domain.Bucket, fromID, toID int64, endpoint string) (*domain.Association, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	for _, id := range []int64{fromID, toID} {
		if err := s.requireObject(ctx, bucket, id); err != nil {
			return nil, err
		}
	}

	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO associations (bucket, from_po_id, to_po_id, endpoint_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		bucket.Key(), fromID, toID, endpoint, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("add association: %w", err)
	}

	var assoc domain.Association
	err = s.db.QueryRowContext(ctx,
		`SELECT from_po_id, to_po_id, endpoint_name, created_at FROM associations
		 WHERE bucket = ? AND from_po_id = ? AND to_po_id = ? AND endpoint_name = ?`,
		bucket.Key(), fromID, toID, endpoint,
	).Scan(&assoc.FromPoID, &assoc.ToPoID, &assoc.EndpointName, &assoc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("read association: %w", err)
	}
	return &assoc, nil
}

// List returns the associations leaving fromID, ordered by endpoint name and
// target id.
func (s *SQLiteAssociationStore) List(ctx context.Context, bucket domain.Bucket, fromID int64) ([]domain.Association, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_po_id, to_po_id, endpoint_name, created_at FROM associations
		 WHERE bucket = ? AND from_po_id = ? ORDER BY endpoint_name ASC, to_po_id ASC`,
		bucket.Key(), fromID,
	)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Association
	for rows.Next() {
		var a domain.Association
		if err := rows.Scan(&a.FromPoID, &a.ToPoID, &a.EndpointName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Remove deletes a single association.
func (s *SQLiteAssociationStore) Remove(ctx context.Context, bucket domain.Bucket, fromID, toID int64, endpoint string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM associations WHERE bucket = ? AND from_po_id = ? AND to_po_id = ? AND endpoint_name = ?`,
		bucket.Key(), fromID, toID, endpoint,
	)
	if err != nil {
		return fmt.Errorf("remove association: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("association %d-%s->%d: %w", fromID, endpoint, toID, ErrNotFound)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/johnwards/ciassoc/internal/domain"
)

// ManagedObjectStore defines the interface for managed object persistence.
type ManagedObjectStore interface {
	Create(ctx context.Context, bucket domain.Bucket, input domain.CreateManagedObjectInput) (*domain.ManagedObject, error)
	Get(ctx context.Context, bucket domain.Bucket, poID int64) (*domain.ManagedObject, error)
	GetByFDN(ctx context.Context, bucket domain.Bucket, fdn string) (*domain.ManagedObject, error)
	List(ctx context.Context, bucket domain.Bucket) ([]*domain.ManagedObject, error)
	Delete(ctx context.Context, bucket domain.Bucket, poID int64) error
}

// SQLiteManagedObjectStore implements ManagedObjectStore backed by SQLite.
type SQLiteManagedObjectStore struct {
	db *sql.DB
}

// NewSQLiteManagedObjectStore creates a new SQLiteManagedObjectStore.
func NewSQLiteManagedObjectStore(db *sql.DB) *SQLiteManagedObjectStore {
	return &SQLiteManagedObjectStore{db: db}
}

const managedObjectColumns = `po_id, namespace, type, version, fdn, name, entity_address_info_id, created_at`

// Create persists a managed object in the given bucket. The FDN must be
// unique within the bucket.
func (s *SQLiteManagedObjectStore) Create(ctx context.Context, bucket domain.Bucket, input domain.CreateManagedObjectInput) (*domain.ManagedObject, error) {
	if input.FDN == "" {
		return nil, fmt.Errorf("fdn is required")
	}

	ts := now()
	var eaiID sql.NullInt64
	if input.EntityAddressInfoID != nil {
		eaiID = sql.NullInt64{Int64: *input.EntityAddressInfoID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO managed_objects (bucket, namespace, type, version, fdn, name, entity_address_info_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bucket.Key(), input.Namespace, input.Type, input.Version, input.FDN, input.Name, eaiID, ts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("managed object %q already exists in bucket %s: %w", input.FDN, bucket, ErrConflict)
		}
		return nil, fmt.Errorf("insert managed object: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.ManagedObject{
		PoID:                id,
		Namespace:           input.Namespace,
		Type:                input.Type,
		Version:             input.Version,
		FDN:                 input.FDN,
		Name:                input.Name,
		EntityAddressInfoID: input.EntityAddressInfoID,
		CreatedAt:           ts,
	}, nil
}

// Get retrieves a managed object by its persisted id.
func (s *SQLiteManagedObjectStore) Get(ctx context.Context, bucket domain.Bucket, poID int64) (*domain.ManagedObject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+managedObjectColumns+` FROM managed_objects WHERE bucket = ? AND po_id = ?`,
		bucket.Key(), poID,
	)
	mo, err := scanManagedObject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("managed object %d: %w", poID, ErrNotFound)
		}
		return nil, fmt.Errorf("get managed object %d: %w", poID, err)
	}
	return mo, nil
}

// GetByFDN retrieves a managed object by its fully distinguished name.
func (s *SQLiteManagedObjectStore) GetByFDN(ctx context.Context, bucket domain.Bucket, fdn string) (*domain.ManagedObject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+managedObjectColumns+` FROM managed_objects WHERE bucket = ? AND fdn = ?`,
		bucket.Key(), fdn,
	)
	mo, err := scanManagedObject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("managed object %q: %w", fdn, ErrNotFound)
		}
		return nil, fmt.Errorf("get managed object %q: %w", fdn, err)
	}
	return mo, nil
}

// List returns every managed object in the bucket ordered by persisted id.
func (s *SQLiteManagedObjectStore) List(ctx context.Context, bucket domain.Bucket) ([]*domain.ManagedObject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+managedObjectColumns+` FROM managed_objects WHERE bucket = ? ORDER BY po_id ASC`,
		bucket.Key(),
	)
	if err != nil {
		return nil, fmt.Errorf("list managed objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.ManagedObject
	for rows.Next() {
		mo, err := scanManagedObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan managed object: %w", err)
		}
		out = append(out, mo)
	}
	return out, rows.Err()
}

// Delete removes a managed object and, through the foreign keys, every
// association that references it.
func (s *SQLiteManagedObjectStore) Delete(ctx context.Context, bucket domain.Bucket, poID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM managed_objects WHERE bucket = ? AND po_id = ?`,
		bucket.Key(), poID,
	)
	if err != nil {
		return fmt.Errorf("delete managed object %d: %w", poID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("managed object %d: %w", poID, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManagedObject(row rowScanner) (*domain.ManagedObject, error) {
	var mo domain.ManagedObject
	var eaiID sql.NullInt64
	if err := row.Scan(&mo.PoID, &mo.Namespace, &mo.Type, &mo.Version, &mo.FDN, &mo.Name, &eaiID, &mo.CreatedAt); err != nil {
		return nil, err
	}
	if eaiID.Valid {
		id := eaiID.Int64
		mo.EntityAddressInfoID = &id
	}
	return &mo, nil
}

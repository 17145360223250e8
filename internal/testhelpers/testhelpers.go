package testhelpers

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/johnwards/ciassoc/internal/database"
	"github.com/johnwards/ciassoc/internal/server"
	"github.com/johnwards/ciassoc/internal/store"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewMigratedDB returns an in-memory database with all migrations applied.
func NewMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// TestServer is a running reference service backed by an in-memory
// database.
type TestServer struct {
	*httptest.Server
	Store *store.Store
}

// NewTestServer starts a fully wired reference service. It is shut down when
// the test completes.
func NewTestServer(t *testing.T, opts server.Options) *TestServer {
	t.Helper()

	s, err := server.Prepare(context.Background(), NewTestDB(t), "")
	if err != nil {
		t.Fatalf("prepare test server: %v", err)
	}

	srv := httptest.NewServer(server.New(s, opts))
	t.Cleanup(srv.Close)
	return &TestServer{Server: srv, Store: s}
}

// HostPort splits the server address into host and port.
func (ts *TestServer) HostPort(t *testing.T) (string, string) {
	t.Helper()
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	return u.Hostname(), u.Port()
}

// Package seed populates a fresh reference service: the naming binding for
// the DPS home and, optionally, managed objects from a YAML fixture.
package seed

import (
	"context"
	"fmt"

	apidps "github.com/johnwards/ciassoc/internal/api/dps"
	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/dps"
	"github.com/johnwards/ciassoc/internal/store"
)

// Seed inserts the standard seed data. It is idempotent.
func Seed(ctx context.Context, s *store.Store) error {
	if err := Bindings(ctx, s.Bindings); err != nil {
		return fmt.Errorf("seed bindings: %w", err)
	}
	return nil
}

// Bindings binds the DPS home registration name to the DPS served by this
// process. The endpoint is relative so lookups resolve it against whichever
// registry address the client used.
func Bindings(ctx context.Context, bindings store.BindingStore) error {
	_, err := bindings.Bind(ctx, domain.Binding{
		Name:      dps.RemoteLookupName,
		Interface: dps.HomeInterface,
		Endpoint:  apidps.BasePath,
	})
	return err
}

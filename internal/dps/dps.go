// Package dps is the client side of the remote Data Persistence Service.
//
// A Home is obtained by narrowing a naming reference; each call to
// Home.Create opens a Service session against the DPS.
package dps

import (
	"context"
	"errors"
	"fmt"

	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/naming"
	"github.com/johnwards/ciassoc/internal/remote"
)

const (
	// RemoteLookupName is the registration name the DPS home is bound under.
	RemoteLookupName = "dps/RemoteDataPersistenceServiceHome"
	// HomeInterface identifies bindings that can be narrowed to a Home.
	HomeInterface = "dps.RemoteDataPersistenceServiceHome"
)

// ErrNotNarrowable is returned when an object reference does not implement
// the DPS home interface.
var ErrNotNarrowable = errors.New("object reference cannot be narrowed to the DPS home")

// Home creates DPS sessions.
type Home interface {
	Create(ctx context.Context) (Service, error)
}

// Service is a live DPS session.
type Service interface {
	// GetMo returns the managed object at fdn in bucket, or nil and no error
	// when no such object exists.
	GetMo(ctx context.Context, bucket domain.Bucket, fdn string) (*domain.ManagedObject, error)
	// AddAssociation records a directed association from fromID to toID
	// under endpoint.
	AddAssociation(ctx context.Context, bucket domain.Bucket, fromID, toID int64, endpoint string) error
	// SessionID identifies the session on the DPS.
	SessionID() string
}

// Narrow converts an object reference returned by a naming lookup into a
// Home. References that already implement Home are returned unchanged; a
// *naming.Reference bound with HomeInterface is served over HTTP with client.
func Narrow(obj any, client *remote.Client) (Home, error) {
	switch v := obj.(type) {
	case Home:
		return v, nil
	case *naming.Reference:
		if v == nil || v.Interface != HomeInterface {
			iface := ""
			if v != nil {
				iface = v.Interface
			}
			return nil, fmt.Errorf("%w: reference implements %q", ErrNotNarrowable, iface)
		}
		if client == nil {
			client = remote.NewClient()
		}
		return &httpHome{base: v.URL, client: client}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %T", ErrNotNarrowable, obj)
	}
}

// Narrower adapts Narrow to a fixed client.
func Narrower(client *remote.Client) func(any) (Home, error) {
	return func(obj any) (Home, error) {
		return Narrow(obj, client)
	}
}

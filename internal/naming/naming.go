// Package naming resolves registration names to remote object references.
//
// A naming address has the form
//
//	dpsname:<transport>:<host>:<port>#<registration-name>
//
// where transport selects how the registry at host:port is reached (http or
// https) and registration-name is the name the remote object was bound under.
package naming

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Scheme prefixes every naming address.
const Scheme = "dpsname"

var (
	// ErrInvalidAddress is returned for addresses that cannot be parsed.
	ErrInvalidAddress = errors.New("invalid naming address")
	// ErrNameNotBound is returned when the registry has no binding for a name.
	ErrNameNotBound = errors.New("name not bound")
)

// Context performs naming lookups.
type Context interface {
	// Lookup resolves address to an object reference. The concrete type of
	// the result depends on the implementation; callers narrow it to the
	// interface they expect.
	Lookup(ctx context.Context, address string) (any, error)
}

// Reference is the object reference returned by an InitialContext lookup.
type Reference struct {
	Name      string
	Interface string
	// URL is the absolute endpoint the bound object is served from.
	URL string
}

// Address builds a naming address from its parts.
func Address(transport, host, port, name string) string {
	return fmt.Sprintf("%s:%s:%s#%s", Scheme, transport, net.JoinHostPort(host, port), name)
}

// ParsedAddress is a decomposed naming address.
type ParsedAddress struct {
	Transport string
	Host      string
	Port      string
	Name      string
}

// RegistryURL returns the base URL of the naming registry.
func (a ParsedAddress) RegistryURL() string {
	return a.Transport + "://" + net.JoinHostPort(a.Host, a.Port)
}

// ParseAddress splits a naming address into its parts.
func ParseAddress(address string) (ParsedAddress, error) {
	rest, ok := strings.CutPrefix(address, Scheme+":")
	if !ok {
		return ParsedAddress{}, fmt.Errorf("%w: %q lacks %s: scheme", ErrInvalidAddress, address, Scheme)
	}
	location, name, ok := strings.Cut(rest, "#")
	if !ok || name == "" {
		return ParsedAddress{}, fmt.Errorf("%w: %q has no registration name", ErrInvalidAddress, address)
	}
	transport, hostport, ok := strings.Cut(location, ":")
	if !ok {
		return ParsedAddress{}, fmt.Errorf("%w: %q has no transport", ErrInvalidAddress, address)
	}
	switch transport {
	case "http", "https":
	default:
		return ParsedAddress{}, fmt.Errorf("%w: unsupported transport %q", ErrInvalidAddress, transport)
	}
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return ParsedAddress{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, address, err)
	}
	if host == "" || port == "" {
		return ParsedAddress{}, fmt.Errorf("%w: %q needs host and port", ErrInvalidAddress, address)
	}
	return ParsedAddress{Transport: transport, Host: host, Port: port, Name: name}, nil
}

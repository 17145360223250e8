package naming

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/remote"
)

// BindingsPath is where the registry serves its bindings.
const BindingsPath = "/naming/v1/bindings"

// InitialContext looks names up in the HTTP naming registry named by each
// address. It holds no per-registry state, so one InitialContext can serve
// lookups against any number of registries.
type InitialContext struct {
	client *remote.Client
	log    zerolog.Logger
}

// Option configures an InitialContext.
type Option func(*InitialContext)

// WithClient sets the client used to reach registries.
func WithClient(c *remote.Client) Option {
	return func(ic *InitialContext) {
		if c != nil {
			ic.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ic *InitialContext) { ic.log = l }
}

// NewInitialContext returns an InitialContext.
func NewInitialContext(opts ...Option) *InitialContext {
	ic := &InitialContext{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(ic)
	}
	if ic.client == nil {
		ic.client = remote.NewClient()
	}
	return ic
}

// Lookup resolves address against the registry it names and returns a
// *Reference.
func (ic *InitialContext) Lookup(ctx context.Context, address string) (any, error) {
	parsed, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	registry := parsed.RegistryURL()
	var binding domain.Binding
	if err := ic.client.DoJSON(ctx, http.MethodGet, registry+BindingsPath+"/"+escapeName(parsed.Name), nil, &binding); err != nil {
		if remote.IsStatus(err, http.StatusNotFound, "") {
			return nil, fmt.Errorf("lookup %q: %w: %w", parsed.Name, ErrNameNotBound, err)
		}
		return nil, fmt.Errorf("lookup %q at %s: %w", parsed.Name, registry, err)
	}

	endpoint, err := resolveEndpoint(registry, binding.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", parsed.Name, err)
	}

	ic.log.Debug().
		Str("name", binding.Name).
		Str("interface", binding.Interface).
		Str("endpoint", endpoint).
		Msg("naming lookup resolved")

	return &Reference{Name: binding.Name, Interface: binding.Interface, URL: endpoint}, nil
}

// escapeName escapes each path segment of a registration name, keeping the
// slashes that separate them.
func escapeName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// resolveEndpoint turns a binding endpoint into an absolute URL. Relative
// endpoints are resolved against the registry that served them.
func resolveEndpoint(registry, endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("binding has no endpoint")
	}
	base, err := url.Parse(registry + "/")
	if err != nil {
		return "", fmt.Errorf("parse registry url: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	return strings.TrimSuffix(base.ResolveReference(ref).String(), "/"), nil
}

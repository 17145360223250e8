// Package server assembles the reference naming registry and DPS into one
// HTTP handler.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/johnwards/ciassoc/internal/api"
	"github.com/johnwards/ciassoc/internal/api/admin"
	"github.com/johnwards/ciassoc/internal/api/dps"
	"github.com/johnwards/ciassoc/internal/api/naming"
	"github.com/johnwards/ciassoc/internal/database"
	"github.com/johnwards/ciassoc/internal/seed"
	"github.com/johnwards/ciassoc/internal/store"
	"github.com/johnwards/ciassoc/internal/telemetry"
)

// Options configures the handler built by New.
type Options struct {
	// AuthToken, when set, is required as a Bearer token on every API call.
	AuthToken string
	Logger    zerolog.Logger
	// Collector receives request metrics. Defaults to a no-op collector.
	Collector telemetry.Collector
	// Gatherer is served on /metrics. No metrics endpoint is registered when
	// it is nil.
	Gatherer prometheus.Gatherer
}

// New returns the fully wired HTTP handler for s.
func New(s *store.Store, opts Options) http.Handler {
	if opts.Collector == nil {
		opts.Collector = telemetry.Noop()
	}

	mux := http.NewServeMux()

	naming.RegisterRoutes(mux, s.Bindings)
	dps.RegisterRoutes(mux, s)
	admin.RegisterRoutes(mux, s)

	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Catch-all: return 404 in the service error format.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteError(w, http.StatusNotFound, api.NewRouteNotFoundError(
			fmt.Sprintf("No route found for %s %s", r.Method, r.URL.Path),
			api.CorrelationID(r.Context()),
		))
	})

	handler := api.Chain(mux,
		api.RequestID(),
		api.Logging(opts.Logger),
		api.Recovery(),
		api.Auth(opts.AuthToken),
		api.JSONContentType(),
		api.Metrics(opts.Collector),
	)
	return otelhttp.NewHandler(handler, "ciassoc")
}

// Prepare migrates db, applies the standard seeds and, when fixture is set,
// loads the managed objects it lists.
func Prepare(ctx context.Context, db *sql.DB, fixture string) (*store.Store, error) {
	if err := database.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s := store.New(db)
	if err := seed.Seed(ctx, s); err != nil {
		return nil, fmt.Errorf("seed data: %w", err)
	}
	if fixture != "" {
		mos, err := seed.LoadObjects(ctx, s.Objects, fixture)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		zerolog.Ctx(ctx).Info().Str("fixture", fixture).Int("objects", len(mos)).Msg("fixture loaded")
	}
	return s, nil
}

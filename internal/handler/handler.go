// Package handler associates a configuration item with its entity address
// info on a remote DPS.
//
// A Handler is configured once and may then be executed any number of times.
// Each execution resolves a fresh DPS session, fetches the managed object at
// the configured FDN and adds the ciRef association from the object's entity
// address info id to its persisted id, all in the live bucket. Every failure
// is returned immediately as one of the typed errors in this package so the
// caller can roll back its enclosing transaction.
//
// A Handler is not safe for concurrent use; run one per flow.
package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/johnwards/ciassoc/internal/config"
	"github.com/johnwards/ciassoc/internal/domain"
	"github.com/johnwards/ciassoc/internal/dps"
	"github.com/johnwards/ciassoc/internal/naming"
	"github.com/johnwards/ciassoc/internal/remote"
	"github.com/johnwards/ciassoc/internal/telemetry"
)

const (
	// EndpointName is the association endpoint created by the handler.
	EndpointName = "ciRef"
	// Transport is the naming transport used to reach the DPS registry.
	Transport = "http"

	tracerName = "github.com/johnwards/ciassoc/internal/handler"
)

// Handler runs the CI association sequence.
type Handler struct {
	log              zerolog.Logger
	collector        telemetry.Collector
	tracer           trace.Tracer
	client           *remote.Client
	newNamingContext func() naming.Context
	narrow           func(any) (dps.Home, error)

	cfg       *Configuration
	namingCtx naming.Context
	state     State
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithCollector sets the telemetry collector.
func WithCollector(c telemetry.Collector) Option {
	return func(h *Handler) {
		if c != nil {
			h.collector = c
		}
	}
}

// WithTracerProvider sets the provider spans are started from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		if tp != nil {
			h.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithRemoteClient sets the client used for naming lookups and DPS calls.
func WithRemoteClient(c *remote.Client) Option {
	return func(h *Handler) {
		if c != nil {
			h.client = c
		}
	}
}

// WithNamingContextFactory sets how the naming context is created on first
// use. The default is an InitialContext sharing the handler's client.
func WithNamingContextFactory(f func() naming.Context) Option {
	return func(h *Handler) {
		if f != nil {
			h.newNamingContext = f
		}
	}
}

// WithNarrower sets how lookup results are narrowed to a DPS home. The
// default is dps.Narrow with the handler's client.
func WithNarrower(f func(any) (dps.Home, error)) Option {
	return func(h *Handler) {
		if f != nil {
			h.narrow = f
		}
	}
}

// New returns an unconfigured Handler.
func New(opts ...Option) *Handler {
	h := &Handler{
		log:       zerolog.Nop(),
		collector: telemetry.Noop(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With().Str("component", "ci-association").Logger()
	if h.client == nil {
		h.client = remote.NewClient()
	}
	if h.newNamingContext == nil {
		h.newNamingContext = func() naming.Context {
			return naming.NewInitialContext(naming.WithClient(h.client), naming.WithLogger(h.log))
		}
	}
	if h.narrow == nil {
		h.narrow = dps.Narrower(h.client)
	}
	return h
}

// Configure validates and stores the configuration read from src. It may
// succeed only once per Handler.
func (h *Handler) Configure(src config.Source) error {
	if h.cfg != nil {
		return &ConfigurationError{Err: ErrAlreadyConfigured}
	}
	if src != nil {
		h.log.Info().Interface("properties", src.AllProperties()).Msg("configuration properties")
	}

	cfg, err := ExtractConfiguration(src)
	if err != nil {
		h.log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	h.cfg = &cfg
	h.state = StateConfigured
	return nil
}

// Configuration returns the stored configuration and whether Configure has
// succeeded.
func (h *Handler) Configuration() (Configuration, bool) {
	if h.cfg == nil {
		return Configuration{}, false
	}
	return *h.cfg, true
}

// State returns the state reached by the last Configure or Execute.
func (h *Handler) State() State { return h.state }

// Execute resolves a DPS session, fetches the configured managed object and
// adds its ciRef association. Execution stops at the first failure.
func (h *Handler) Execute(ctx context.Context) (err error) {
	if h.cfg == nil {
		return &ConfigurationError{Err: ErrNotConfigured}
	}

	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "handler.Execute", trace.WithAttributes(
		attribute.String("ciassoc.fdn", h.cfg.TargetFDN),
		attribute.String("ciassoc.remote", h.cfg.RemoteHost+":"+h.cfg.RemotePort),
	))
	defer func() {
		outcome := Outcome(err)
		h.collector.ObserveExecution(outcome, time.Since(start))
		span.SetAttributes(attribute.String("ciassoc.outcome", outcome))
		if err != nil {
			h.state = StateFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	h.state = StateConfigured

	svc, err := h.resolve(ctx)
	if err != nil {
		return err
	}
	h.state = StateSessionResolved

	mo, err := h.fetch(ctx, svc)
	if err != nil {
		return err
	}
	h.state = StateRecordFetched

	if err := h.associate(ctx, svc, mo); err != nil {
		return err
	}
	h.state = StateAssociationCreated
	return nil
}

// Destroy releases the naming context. A later Execute creates a new one.
func (h *Handler) Destroy() {
	h.namingCtx = nil
}

func (h *Handler) namingContext() naming.Context {
	if h.namingCtx == nil {
		h.namingCtx = h.newNamingContext()
	}
	return h.namingCtx
}

func (h *Handler) resolve(ctx context.Context) (dps.Service, error) {
	address := naming.Address(Transport, h.cfg.RemoteHost, h.cfg.RemotePort, dps.RemoteLookupName)
	log := h.log.With().Str("address", address).Logger()
	log.Debug().Msg("looking up DPS")

	fail := func(step string, err error) error {
		lerr := &LookupError{Address: address, Step: step, Err: err}
		log.Error().Err(err).Str("step", step).Msg("failed to resolve DPS")
		return lerr
	}

	obj, err := h.namingContext().Lookup(ctx, address)
	if err != nil {
		return nil, fail("lookup", err)
	}
	home, err := h.narrow(obj)
	if err != nil {
		return nil, fail("narrow", err)
	}
	svc, err := home.Create(ctx)
	if err != nil {
		return nil, fail("create", err)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("ciassoc.session", svc.SessionID()))
	log.Debug().Str("session", svc.SessionID()).Msg("DPS session created")
	return svc, nil
}

func (h *Handler) fetch(ctx context.Context, svc dps.Service) (*domain.ManagedObject, error) {
	fdn := h.cfg.TargetFDN
	mo, err := svc.GetMo(ctx, domain.LiveBucket, fdn)
	if err != nil {
		h.log.Error().Err(err).Str("fdn", fdn).Msg("failed to fetch managed object")
		return nil, &FetchError{FDN: fdn, Err: err}
	}
	if mo == nil {
		h.log.Error().Str("fdn", fdn).Msg("managed object not found")
		return nil, &NotFoundError{FDN: fdn}
	}
	h.log.Debug().Str("fdn", fdn).Int64("poId", mo.PoID).Msg("managed object retrieved")
	return mo, nil
}

func (h *Handler) associate(ctx context.Context, svc dps.Service, mo *domain.ManagedObject) error {
	fdn := h.cfg.TargetFDN
	if mo.EntityAddressInfoID == nil {
		h.log.Error().Str("fdn", fdn).Int64("poId", mo.PoID).Msg("managed object has no entity address info id")
		return &AssociationError{FDN: fdn, TargetID: mo.PoID, Endpoint: EndpointName, Err: ErrMissingEntityAddressInfo}
	}

	source := *mo.EntityAddressInfoID
	if err := svc.AddAssociation(ctx, domain.LiveBucket, source, mo.PoID, EndpointName); err != nil {
		h.log.Error().Err(err).
			Str("fdn", fdn).
			Int64("from", source).
			Int64("to", mo.PoID).
			Msg("failed to add association")
		return &AssociationError{FDN: fdn, SourceID: &source, TargetID: mo.PoID, Endpoint: EndpointName, Err: err}
	}

	h.log.Debug().
		Str("fdn", fdn).
		Int64("from", source).
		Int64("to", mo.PoID).
		Str("endpoint", EndpointName).
		Msg("association created")
	return nil
}

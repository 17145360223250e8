// Package telemetry carries the metrics and tracing hooks shared by the
// handler and the reference service.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Collector captures telemetry events. Calls are made inline with handler
// executions and HTTP requests so implementations must be cheap.
type Collector interface {
	ObserveExecution(outcome string, took time.Duration)
	ObserveRequest(method, route string, status int, took time.Duration)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) ObserveExecution(string, time.Duration)            {}
func (noopCollector) ObserveRequest(string, string, int, time.Duration) {}

// PrometheusCollector exposes telemetry via Prometheus.
type PrometheusCollector struct {
	executions        *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// NewPrometheusCollector registers the metrics with reg, or with the default
// registerer when reg is nil. Metrics already registered on reg are reused.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	executions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ciassoc_handler_executions_total",
		Help: "Number of association handler executions by outcome.",
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	executionDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ciassoc_handler_execution_duration_seconds",
		Help:    "Duration of association handler executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"}))
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ciassoc_http_requests_total",
		Help: "Number of HTTP requests served by route and status code.",
	}, []string{"method", "route", "code"}))
	if err != nil {
		return nil, err
	}
	requestDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ciassoc_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		executions:        executions,
		executionDuration: executionDuration,
		requests:          requests,
		requestDuration:   requestDuration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// ObserveExecution records one handler execution.
func (p *PrometheusCollector) ObserveExecution(outcome string, took time.Duration) {
	if p == nil {
		return
	}
	p.executions.WithLabelValues(outcome).Inc()
	p.executionDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

// ObserveRequest records one served HTTP request.
func (p *PrometheusCollector) ObserveRequest(method, route string, status int, took time.Duration) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Push sends everything gathered by g to a Prometheus Pushgateway under job.
// One-shot runs use it since nothing scrapes them.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

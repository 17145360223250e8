package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopCollector(t *testing.T) {
	collector := Noop()
	require.NotNil(t, collector)
	collector.ObserveExecution("success", time.Second)
	collector.ObserveRequest("GET", "/", 200, time.Millisecond)
}

func TestPrometheusCollectorRecordsExecutions(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	collector.ObserveExecution("success", 10*time.Millisecond)
	collector.ObserveExecution("success", 20*time.Millisecond)
	collector.ObserveExecution("not_found", time.Millisecond)

	mf := gather(t, reg, "ciassoc_handler_executions_total")
	assert.Equal(t, 2.0, counterValue(t, mf, "outcome", "success"))
	assert.Equal(t, 1.0, counterValue(t, mf, "outcome", "not_found"))

	hist := gather(t, reg, "ciassoc_handler_execution_duration_seconds")
	require.Len(t, hist.Metric, 2)
}

func TestPrometheusCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	second, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.Same(t, first.executions, second.executions)

	first.ObserveRequest("GET", "/naming/v1/bindings", 200, time.Millisecond)
	second.ObserveRequest("GET", "/naming/v1/bindings", 200, time.Millisecond)

	mf := gather(t, reg, "ciassoc_http_requests_total")
	assert.Equal(t, 2.0, counterValue(t, mf, "code", "200"))
}

func TestNilPrometheusCollector(t *testing.T) {
	var p *PrometheusCollector
	p.ObserveExecution("success", time.Second)
	p.ObserveRequest("GET", "/", 200, time.Second)
}

func TestPush(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(raw)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	collector.ObserveExecution("success", time.Millisecond)

	require.NoError(t, Push(context.Background(), srv.URL, "ciassoc", reg))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/ciassoc", path)
	assert.True(t, strings.Contains(body, "ciassoc_handler_executions_total"))
}

func TestPushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(context.Background(), srv.URL, "ciassoc", prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestInitTracerDisabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracer(context.Background(), ServiceName)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return nil
}

func counterValue(t *testing.T, mf *dto.MetricFamily, label, value string) float64 {
	t.Helper()
	for _, m := range mf.Metric {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("no %s sample with %s=%s", mf.GetName(), label, value)
	return 0
}

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the ingestion engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	SyncRecords     *prometheus.CounterVec
	SyncRuns        *prometheus.CounterVec
	SyncDuration    prometheus.Histogram
	GeocodeRequests *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sighting_observation_mutations_total",
				Help: "Observation create/edit requests partitioned by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		SyncRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sighting_sync_records_total",
				Help: "Records handled by the external sync partitioned by kind and result.",
			},
			[]string{"kind", "result"},
		),
		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sighting_sync_runs_total",
				Help: "External sync runs partitioned by status.",
			},
			[]string{"status"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sighting_sync_duration_seconds",
				Help:    "Wall time of complete external sync runs.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
			},
		),
		GeocodeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sighting_geocode_requests_total",
				Help: "Reverse geocoding lookups partitioned by result (hit, fetched, failed).",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.Mutations, m.SyncRecords, m.SyncRuns, m.SyncDuration, m.GeocodeRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordMutation counts one observation create or edit.
func (m *Metrics) RecordMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(operation, outcome).Inc()
}

// AddSyncRecords counts n sync records of one kind and result.
func (m *Metrics) AddSyncRecords(kind, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SyncRecords.WithLabelValues(kind, result).Add(float64(n))
}

// RecordSyncRun counts a finished sync run and observes its duration.
func (m *Metrics) RecordSyncRun(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SyncRuns.WithLabelValues(status).Inc()
	m.SyncDuration.Observe(elapsed.Seconds())
}

// RecordGeocode counts one reverse geocoding lookup.
func (m *Metrics) RecordGeocode(result string) {
	if m == nil {
		return
	}
	m.GeocodeRequests.WithLabelValues(result).Inc()
}

// Package metrics exposes Prometheus counters for submissions, the external
// sync and reverse geocoding. The collectors live on a private registry that
// the start command serves at /metrics.
package metrics

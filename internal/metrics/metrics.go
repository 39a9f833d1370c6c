// Package metrics exposes the gateway's Prometheus surface, grounded on the
// teacher's internal/metrics/metrics.go promauto.With(registry) construction
// idiom, renamed from payment counters to request/backend/rate-limit
// counters, plus a JSON snapshot so operators can dump and restore in-memory
// counts across a graceful restart the way internal/configstore dumps its
// entity store.
package metrics

import (
	"encoding/json"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the gateway registers.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestBytesIn     *prometheus.CounterVec
	RequestBytesOut    *prometheus.CounterVec
	BackendRetries     *prometheus.CounterVec
	BackendExhausted   *prometheus.CounterVec
	CircuitBreakerTrip *prometheus.CounterVec
	RateLimitHitsTotal *prometheus.CounterVec
	CreditDeniedTotal  *prometheus.CounterVec
	ChaosOutagesTotal  *prometheus.CounterVec

	snapshot *snapshotCounters
}

// New creates and registers every collector against registry (the default
// registerer if nil).
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_requests_total",
			Help: "Total number of gateway requests by API, version, and status code.",
		}, []string{"api", "version", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doorman_request_duration_seconds",
			Help:    "Request latency in seconds by API and protocol.",
			Buckets: prometheus.DefBuckets,
		}, []string{"api", "protocol"}),
		RequestBytesIn: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_request_bytes_in_total",
			Help: "Total request bytes received by API.",
		}, []string{"api"}),
		RequestBytesOut: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_request_bytes_out_total",
			Help: "Total response bytes sent by API.",
		}, []string{"api"}),
		BackendRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_backend_retries_total",
			Help: "Total backend retry attempts by API.",
		}, []string{"api"}),
		BackendExhausted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_backend_exhausted_total",
			Help: "Total requests that exhausted the retry budget for an API.",
		}, []string{"api"}),
		CircuitBreakerTrip: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_circuit_breaker_trips_total",
			Help: "Total circuit breaker state transitions to open by API.",
		}, []string{"api"}),
		RateLimitHitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_rate_limit_hits_total",
			Help: "Total rate limit rejections by limit type.",
		}, []string{"limit_type"}),
		CreditDeniedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_credit_denied_total",
			Help: "Total requests denied for insufficient credits, by credit group.",
		}, []string{"credit_group"}),
		ChaosOutagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "doorman_chaos_outages_total",
			Help: "Total chaos outages triggered by backend.",
		}, []string{"backend"}),
		snapshot: newSnapshotCounters(),
	}
}

// ObserveRateLimit records a rate limit rejection, used by internal/gatewayhttp.
func (m *Metrics) ObserveRateLimit(limitType string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType).Inc()
	m.snapshot.incr("rate_limit:" + limitType)
}

// ObserveRequest records a completed request's status code for an API/version.
func (m *Metrics) ObserveRequest(api, version, status string) {
	m.RequestsTotal.WithLabelValues(api, version, status).Inc()
	m.snapshot.incr("requests:" + api + ":" + version + ":" + status)
}

// snapshotCounters tracks plain integer counts in parallel with the
// Prometheus vectors so SaveSnapshot/LoadSnapshot can round-trip through
// JSON without depending on Prometheus's internal text format.
type snapshotCounters struct {
	counts map[string]int64
}

func newSnapshotCounters() *snapshotCounters {
	return &snapshotCounters{counts: make(map[string]int64)}
}

func (s *snapshotCounters) incr(key string) {
	s.counts[key]++
}

// SaveSnapshot writes the plain-count mirror of the gateway's counters to
// path as JSON, for operators who want metrics to survive a graceful
// restart without needing a Prometheus push-gateway in front of the process.
func (m *Metrics) SaveSnapshot(path string) error {
	data, err := json.MarshalIndent(m.snapshot.counts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSnapshot restores the plain-count mirror from a prior SaveSnapshot; it
// does not re-seed the Prometheus vectors themselves (Prometheus counters
// are defined to be monotonic only within a process lifetime), but makes the
// restored baseline available via Snapshot() for diagnostics.
func (m *Metrics) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var counts map[string]int64
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	m.snapshot.counts = counts
	return nil
}

// Snapshot returns a copy of the plain-count mirror; no HTTP route exposes it.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(m.snapshot.counts))
	for k, v := range m.snapshot.counts {
		out[k] = v
	}
	return out
}

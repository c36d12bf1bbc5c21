// Package metrics exports resolver, cache and HTTP client events as
// Prometheus metrics by implementing the observability hook interfaces.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/mvnfetch/pkg/observability"
)

const namespace = "mvnfetch"

// Metrics holds the collectors. It implements [observability.ResolveHooks],
// [observability.CacheHooks] and [observability.HTTPHooks].
type Metrics struct {
	registry *prometheus.Registry

	resolutions        *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
	attempts           *prometheus.CounterVec
	attemptDuration    *prometheus.HistogramVec
	localHits          prometheus.Counter
	inFlight           prometheus.Gauge

	cacheOps  *prometheus.CounterVec
	cacheSize *prometheus.HistogramVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of artifact resolutions by result",
			},
			[]string{"result"},
		),
		resolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Artifact resolution duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"result"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "repository_attempts_total",
				Help:      "Total number of repository attempts by outcome",
			},
			[]string{"repository", "outcome"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "repository_attempt_duration_seconds",
				Help:      "Repository attempt duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"repository"},
		),
		localHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "local_hits_total",
				Help:      "Total number of resolutions served from the local repository",
			},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "resolutions_in_flight",
				Help:      "Number of resolutions currently running",
			},
		),
		cacheOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Total number of metadata cache operations",
			},
			[]string{"kind", "op"},
		),
		cacheSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cache_entry_size_bytes",
				Help:      "Size of metadata cache entries written",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"kind"},
		),
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of HTTP requests sent to repositories",
			},
			[]string{"host", "status"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Repository HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Total number of failed repository HTTP requests",
			},
			[]string{"host"},
		),
	}
}

// Register installs m as the global resolve, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetResolveHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnResolveStart implements observability.ResolveHooks.
func (m *Metrics) OnResolveStart(context.Context, string) {
	m.inFlight.Inc()
}

// OnResolveComplete implements observability.ResolveHooks.
func (m *Metrics) OnResolveComplete(_ context.Context, _, _ string, d time.Duration, err error) {
	m.inFlight.Dec()
	m.resolutions.WithLabelValues(result(err)).Inc()
	m.resolutionDuration.WithLabelValues(result(err)).Observe(d.Seconds())
}

// OnAttempt implements observability.ResolveHooks.
func (m *Metrics) OnAttempt(_ context.Context, repoID, outcome string, d time.Duration) {
	m.attempts.WithLabelValues(repoID, outcome).Inc()
	if outcome != observability.OutcomeSkipped {
		m.attemptDuration.WithLabelValues(repoID).Observe(d.Seconds())
	}
}

// OnLocalHit implements observability.ResolveHooks.
func (m *Metrics) OnLocalHit(context.Context, string) {
	m.localHits.Inc()
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheOps.WithLabelValues(kind, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheOps.WithLabelValues(kind, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, kind string, size int) {
	m.cacheOps.WithLabelValues(kind, "set").Inc()
	m.cacheSize.WithLabelValues(kind).Observe(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.upstreamRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

// OnError implements observability.HTTPHooks.
func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.upstreamErrors.WithLabelValues(host).Inc()
}

package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCacheHooks counts cache events per resource.
type PrometheusCacheHooks struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	sets   *prometheus.CounterVec
	bytes  *prometheus.HistogramVec
}

// NewPrometheusCacheHooks registers cache metrics on reg.
func NewPrometheusCacheHooks(reg prometheus.Registerer) *PrometheusCacheHooks {
	f := promauto.With(reg)
	return &PrometheusCacheHooks{
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that returned a live entry.",
		}, []string{"resource"}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found nothing or an expired entry.",
		}, []string{"resource"}),
		sets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "cache",
			Name:      "sets_total",
			Help:      "Entries written to the cache.",
		}, []string{"resource"}),
		bytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careflow",
			Subsystem: "cache",
			Name:      "entry_bytes",
			Help:      "Size of cached response bodies.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 6),
		}, []string{"resource"}),
	}
}

func (h *PrometheusCacheHooks) OnCacheHit(_ context.Context, resource string) {
	h.hits.WithLabelValues(resource).Inc()
}

func (h *PrometheusCacheHooks) OnCacheMiss(_ context.Context, resource string) {
	h.misses.WithLabelValues(resource).Inc()
}

func (h *PrometheusCacheHooks) OnCacheSet(_ context.Context, resource string, size int) {
	h.sets.WithLabelValues(resource).Inc()
	h.bytes.WithLabelValues(resource).Observe(float64(size))
}

// PrometheusHTTPHooks counts attempts and observes their latency.
// URLs are not used as labels; only method and status are.
type PrometheusHTTPHooks struct {
	attempts *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewPrometheusHTTPHooks registers attempt metrics on reg.
func NewPrometheusHTTPHooks(reg prometheus.Registerer) *PrometheusHTTPHooks {
	f := promauto.With(reg)
	return &PrometheusHTTPHooks{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "http",
			Name:      "attempts_total",
			Help:      "Network attempts that received a response, by method and status.",
		}, []string{"method", "status"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careflow",
			Subsystem: "http",
			Name:      "transport_failures_total",
			Help:      "Network attempts that received no response.",
		}, []string{"method"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careflow",
			Subsystem: "http",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual network attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (h *PrometheusHTTPHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHTTPHooks) OnResponse(_ context.Context, method, _ string, status int, d time.Duration) {
	h.attempts.WithLabelValues(method, strconv.Itoa(status)).Inc()
	h.latency.WithLabelValues(method).Observe(d.Seconds())
}

func (h *PrometheusHTTPHooks) OnError(_ context.Context, method, _ string, d time.Duration, _ error) {
	h.failures.WithLabelValues(method).Inc()
	h.latency.WithLabelValues(method).Observe(d.Seconds())
}

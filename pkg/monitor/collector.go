package monitor

import (
	"maps"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "careflow"

var (
	requestsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "api", "requests_total"),
		"Recorded API calls by outcome.",
		[]string{"outcome"}, nil,
	)
	avgDurationDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "api", "request_duration_avg_seconds"),
		"Running mean duration of recorded API calls.",
		nil, nil,
	)
	errorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "errors_total"),
		"Recorded errors by type.",
		[]string{"type"}, nil,
	)
	errorRateDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "health", "error_rate_percent"),
		"Failed calls as a percentage of all calls.",
		nil, nil,
	)
	statusDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "health", "status"),
		"1 for the current health status, 0 otherwise.",
		[]string{"status"}, nil,
	)
)

type collector struct {
	m *Monitor
}

// Collector exposes the monitor's aggregates as Prometheus metrics.
// Register it on a registry owned by the caller.
func (m *Monitor) Collector() prometheus.Collector {
	return collector{m: m}
}

func (collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- requestsDesc
	ch <- avgDurationDesc
	ch <- errorsDesc
	ch <- errorRateDesc
	ch <- statusDesc
}

func (c collector) Collect(ch chan<- prometheus.Metric) {
	c.m.mu.Lock()
	success, failed := c.m.success, c.m.failed
	avg := c.m.avgNanos
	byType := maps.Clone(c.m.errByType)
	h := c.m.healthLocked()
	c.m.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.CounterValue, float64(success), "success")
	ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.CounterValue, float64(failed), "error")
	ch <- prometheus.MustNewConstMetric(avgDurationDesc, prometheus.GaugeValue, avg/1e9)
	for typ, n := range byType {
		ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(n), typ)
	}
	ch <- prometheus.MustNewConstMetric(errorRateDesc, prometheus.GaugeValue, h.ErrorRate)
	for _, s := range []Status{StatusHealthy, StatusDegraded, StatusError} {
		v := 0.0
		if h.Status == s {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(statusDesc, prometheus.GaugeValue, v, string(s))
	}
}

package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/careflow/pkg/monitor"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "patients")
	c.OnCacheMiss(ctx, "caregivers")
	c.OnCacheSet(ctx, "care-plans", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/patients/1")
	h.OnResponse(ctx, "GET", "/patients/1", 200, time.Second)
	h.OnError(ctx, "GET", "/patients/1", time.Second, nil)
}

type recordingHTTP struct {
	events []string
}

func (r *recordingHTTP) OnRequest(_ context.Context, method, url string) {
	r.events = append(r.events, "request "+method+" "+url)
}

func (r *recordingHTTP) OnResponse(_ context.Context, method, url string, status int, _ time.Duration) {
	r.events = append(r.events, "response "+method+" "+url)
}

func (r *recordingHTTP) OnError(_ context.Context, method, url string, _ time.Duration, _ error) {
	r.events = append(r.events, "error "+method+" "+url)
}

type recordingCache struct {
	hits, misses, sets int
}

func (r *recordingCache) OnCacheHit(context.Context, string)      { r.hits++ }
func (r *recordingCache) OnCacheMiss(context.Context, string)     { r.misses++ }
func (r *recordingCache) OnCacheSet(context.Context, string, int) { r.sets++ }

func TestMultiHTTP(t *testing.T) {
	ctx := context.Background()
	a, b := &recordingHTTP{}, &recordingHTTP{}
	h := MultiHTTP(a, nil, b)

	h.OnRequest(ctx, "GET", "/x")
	h.OnResponse(ctx, "GET", "/x", 200, time.Millisecond)
	h.OnError(ctx, "POST", "/y", time.Millisecond, errors.New("refused"))

	for _, r := range []*recordingHTTP{a, b} {
		if len(r.events) != 3 {
			t.Fatalf("got %d events, want 3: %v", len(r.events), r.events)
		}
		if r.events[2] != "error POST /y" {
			t.Errorf("last event = %q", r.events[2])
		}
	}
}

func TestMultiCache(t *testing.T) {
	ctx := context.Background()
	a, b := &recordingCache{}, &recordingCache{}
	h := MultiCache(a, b, nil)

	h.OnCacheHit(ctx, "patients")
	h.OnCacheMiss(ctx, "patients")
	h.OnCacheMiss(ctx, "patients")
	h.OnCacheSet(ctx, "patients", 10)

	for _, r := range []*recordingCache{a, b} {
		if r.hits != 1 || r.misses != 2 || r.sets != 1 {
			t.Errorf("got hits=%d misses=%d sets=%d", r.hits, r.misses, r.sets)
		}
	}
}

func TestMonitorHooks(t *testing.T) {
	ctx := context.Background()
	m := monitor.New(monitor.DefaultConfig())
	h := MonitorHooks(m)

	h.OnRequest(ctx, "GET", "/patients/1")
	h.OnResponse(ctx, "GET", "/patients/1", 200, 10*time.Millisecond)
	h.OnResponse(ctx, "GET", "/patients/1", 503, 10*time.Millisecond)
	h.OnError(ctx, "GET", "/patients/1", 10*time.Millisecond, errors.New("connection refused"))

	api := m.APIMetrics()
	if api.TotalRequests != 3 || api.SuccessCount != 1 || api.ErrorCount != 2 {
		t.Errorf("unexpected api metrics: %+v", api)
	}
	em := m.ErrorMetrics()
	if em.ByType[monitor.TypeNetworkError] != 1 {
		t.Errorf("network errors = %d, want 1", em.ByType[monitor.TypeNetworkError])
	}
}

func TestMonitorHooks_NilMonitor(t *testing.T) {
	if _, ok := MonitorHooks(nil).(NoopHTTPHooks); !ok {
		t.Error("MonitorHooks(nil) should return NoopHTTPHooks")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	h := LogHooks(logger)
	ctx := context.Background()

	h.OnRequest(ctx, "GET", "/caregivers")
	h.OnError(ctx, "GET", "/caregivers", time.Second, errors.New("timeout"))
	h.OnCacheHit(ctx, "caregivers")

	out := buf.String()
	for _, want := range []string{"request", "request failed", "cache hit", "/caregivers"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooks_NilLogger(t *testing.T) {
	h := LogHooks(nil)
	h.OnRequest(context.Background(), "GET", "/x")
	h.OnCacheSet(context.Background(), "x", 1)
}

func TestPrometheusCacheHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusCacheHooks(reg)
	ctx := context.Background()

	h.OnCacheHit(ctx, "patients")
	h.OnCacheHit(ctx, "patients")
	h.OnCacheMiss(ctx, "caregivers")
	h.OnCacheSet(ctx, "caregivers", 2048)

	if got := testutil.ToFloat64(h.hits.WithLabelValues("patients")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.misses.WithLabelValues("caregivers")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(h.sets.WithLabelValues("caregivers")); got != 1 {
		t.Errorf("sets = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(h.bytes); n != 1 {
		t.Errorf("size histograms = %d, want 1", n)
	}
}

func TestPrometheusHTTPHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewPrometheusHTTPHooks(reg)
	ctx := context.Background()

	h.OnResponse(ctx, "GET", "/x", 200, 10*time.Millisecond)
	h.OnResponse(ctx, "GET", "/x", 503, 10*time.Millisecond)
	h.OnResponse(ctx, "GET", "/x", 503, 10*time.Millisecond)
	h.OnError(ctx, "POST", "/y", time.Second, errors.New("refused"))

	if got := testutil.ToFloat64(h.attempts.WithLabelValues("GET", "503")); got != 2 {
		t.Errorf("503 attempts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(h.failures.WithLabelValues("POST")); got != 1 {
		t.Errorf("transport failures = %v, want 1", got)
	}
}

func TestPrometheusHooks_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusCacheHooks(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering cache hooks twice on one registry should panic")
		}
	}()
	NewPrometheusCacheHooks(reg)
}

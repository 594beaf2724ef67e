package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/careflow/pkg/cache"
	"github.com/matzehuels/careflow/pkg/monitor"
)

type fixture struct {
	srv   *Server
	mon   *monitor.Monitor
	store *cache.Store[[]byte]
	clock *clockwork.FakeClock
	logs  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	mon := monitor.New(monitor.DefaultConfig(), monitor.WithClock(clock))
	store := cache.New[[]byte](cache.WithClock(clock), cache.WithDefaultTTL(time.Minute))
	var logs bytes.Buffer
	logger := log.New(&logs)
	logger.SetLevel(log.DebugLevel)
	return &fixture{
		srv:   New(Config{Monitor: mon, Cache: store, Logger: logger}),
		mon:   mon,
		store: store,
		clock: clock,
		logs:  &logs,
	}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var h monitor.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, monitor.StatusHealthy, h.Status)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	f.mon.RecordCall(http.MethodGet, "/caregivers", 503, 10*time.Millisecond)
	rec = f.do(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, monitor.StatusError, h.Status)
}

func TestHealthz_DegradedIsStillOK(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 17; i++ {
		f.mon.RecordCall(http.MethodGet, "/caregivers", 200, time.Millisecond)
	}
	for i := 0; i < 3; i++ {
		f.mon.RecordCall(http.MethodGet, "/caregivers", 500, time.Millisecond)
	}

	rec := f.do(http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestDebugMetrics(t *testing.T) {
	f := newFixture(t)
	f.mon.RecordCall(http.MethodGet, "/patients/1", 200, 20*time.Millisecond)
	f.mon.RecordError(monitor.TypeNetworkError, errors.New("connection refused"))

	rec := f.do(http.MethodGet, "/debug/metrics/api")
	require.Equal(t, http.StatusOK, rec.Code)
	var api monitor.APIMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &api))
	assert.Equal(t, 1, api.TotalRequests)

	rec = f.do(http.MethodGet, "/debug/metrics/errors")
	require.Equal(t, http.StatusOK, rec.Code)
	var em monitor.ErrorMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &em))
	assert.Equal(t, 1, em.ByType[monitor.TypeNetworkError])
	require.Len(t, em.Recent, 1)
	assert.Equal(t, "connection refused", em.Recent[0].Message)

	rec = f.do(http.MethodGet, "/debug/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var d monitor.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, 1, d.API.TotalRequests)
	assert.Equal(t, 1, d.Errors.Total)
}

func TestResetMonitor(t *testing.T) {
	f := newFixture(t)
	f.mon.RecordCall(http.MethodGet, "/x", 500, time.Millisecond)

	rec := f.do(http.MethodPost, "/debug/monitor/reset")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.mon.APIMetrics().TotalRequests)

	rec = f.do(http.MethodGet, "/debug/monitor/reset")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCacheStatus(t *testing.T) {
	f := newFixture(t)
	f.store.SetTTL("GET /patients/1", []byte(`{"id":"1"}`), time.Minute)
	f.store.SetTTL("GET /caregivers", []byte(`[]`), 10*time.Second)
	f.clock.Advance(4 * time.Second)

	rec := f.do(http.MethodGet, "/debug/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []CacheEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, "GET /caregivers", entries[0].Key)
	assert.InDelta(t, 6.0, entries[0].RemainingTTL, 0.001)
	assert.Equal(t, 2, entries[0].Size)
	assert.Equal(t, "GET /patients/1", entries[1].Key)
	assert.Equal(t, 10, entries[1].Size)
}

func TestCacheStatus_Empty(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/debug/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestCacheDelete(t *testing.T) {
	f := newFixture(t)
	f.store.Set("GET /patients/1", []byte("a"))
	f.store.Set("GET /patients/1/matches", []byte("b"))
	f.store.Set("GET /patients/12", []byte("c"))
	f.store.Set("GET /caregivers", []byte("d"))

	rec := f.do(http.MethodDelete, "/debug/cache?pattern="+"%5EGET+%2Fpatients%2F1%28%2F%7C%5C%3F%7C%24%29")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	assert.Equal(t, 2, f.store.Size())

	rec = f.do(http.MethodDelete, "/debug/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	assert.Zero(t, f.store.Size())
}

func TestCacheDelete_InvalidPattern(t *testing.T) {
	f := newFixture(t)
	f.store.Set("GET /caregivers", []byte("d"))

	rec := f.do(http.MethodDelete, "/debug/cache?pattern=%28unclosed")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid pattern")
	assert.Equal(t, 1, f.store.Size())
}

func TestWithoutCache(t *testing.T) {
	srv := New(Config{Monitor: monitor.New(monitor.DefaultConfig())})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/cache", nil))
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/debug/cache", nil))
	assert.JSONEq(t, `{"deleted":0}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.mon.RecordCall(http.MethodGet, "/caregivers", 200, 5*time.Millisecond)

	rec := f.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `careflow_api_requests_total{outcome="success"} 1`)
	assert.Contains(t, body, `careflow_health_status{status="healthy"} 1`)
}

func TestRequestIDAndLogging(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	out := f.logs.String()
	assert.Contains(t, out, "http request")
	assert.Contains(t, out, "/healthz")
	assert.Contains(t, out, "request_id=")
}

func TestRecoverer(t *testing.T) {
	f := newFixture(t)
	h := f.srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	em := f.mon.ErrorMetrics()
	assert.Equal(t, 1, em.ByType[monitor.TypeUncaughtError])
	require.Len(t, em.Recent, 1)
	assert.True(t, strings.Contains(em.Recent[0].Message, "handler exploded"))
	assert.NotEmpty(t, em.Recent[0].Stack)
}

func TestRecoverer_AbortHandlerPropagates(t *testing.T) {
	f := newFixture(t)
	h := f.srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Zero(t, f.mon.ErrorMetrics().Total)
}

func TestStartShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := New(Config{Addr: addr, Monitor: monitor.New(monitor.DefaultConfig())})
	assert.Equal(t, addr, srv.Addr())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-done)
}

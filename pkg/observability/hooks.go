// Package observability provides hooks for metrics and logging of client
// activity.
//
// The resilient client reports every network attempt and every cache
// lookup to the hooks it was constructed with. Nothing is registered
// globally: main builds the hooks it wants and injects them.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Fan out to several implementations with [MultiHTTP] and [MultiCache]
//
// Implementations shipped here feed a reliability monitor ([MonitorHooks]),
// a structured logger ([LogHooks]) and Prometheus ([NewPrometheusCacheHooks],
// [NewPrometheusHTTPHooks]).
//
// # Usage
//
//	mon := monitor.New(monitor.DefaultConfig())
//	hooks := observability.MultiHTTP(
//	    observability.MonitorHooks(mon),
//	    observability.LogHooks(logger),
//	)
//	c := client.New(client.Config{BaseURL: url, Hooks: hooks})
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, resource string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, resource string)

	// OnCacheSet records a cache write of size bytes.
	OnCacheSet(ctx context.Context, resource string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events for every network attempt, retries included.
type HTTPHooks interface {
	// OnRequest records an outgoing attempt.
	OnRequest(ctx context.Context, method, url string)

	// OnResponse records an attempt that got a response, whatever its status.
	OnResponse(ctx context.Context, method, url string, statusCode int, duration time.Duration)

	// OnError records an attempt that got no response (network failure, timeout).
	OnError(ctx context.Context, method, url string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, time.Duration, error)  {}

// =============================================================================
// Fan-out
// =============================================================================

type multiHTTP []HTTPHooks

// MultiHTTP returns hooks that forward every event to each of hs in order.
// Nil entries are skipped.
func MultiHTTP(hs ...HTTPHooks) HTTPHooks {
	out := make(multiHTTP, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (m multiHTTP) OnRequest(ctx context.Context, method, url string) {
	for _, h := range m {
		h.OnRequest(ctx, method, url)
	}
}

func (m multiHTTP) OnResponse(ctx context.Context, method, url string, status int, d time.Duration) {
	for _, h := range m {
		h.OnResponse(ctx, method, url, status, d)
	}
}

func (m multiHTTP) OnError(ctx context.Context, method, url string, d time.Duration, err error) {
	for _, h := range m {
		h.OnError(ctx, method, url, d, err)
	}
}

type multiCache []CacheHooks

// MultiCache returns hooks that forward every event to each of hs in order.
// Nil entries are skipped.
func MultiCache(hs ...CacheHooks) CacheHooks {
	out := make(multiCache, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (m multiCache) OnCacheHit(ctx context.Context, resource string) {
	for _, h := range m {
		h.OnCacheHit(ctx, resource)
	}
}

func (m multiCache) OnCacheMiss(ctx context.Context, resource string) {
	for _, h := range m {
		h.OnCacheMiss(ctx, resource)
	}
}

func (m multiCache) OnCacheSet(ctx context.Context, resource string, size int) {
	for _, h := range m {
		h.OnCacheSet(ctx, resource, size)
	}
}

package observability

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// LoggingHooks implements both HTTPHooks and CacheHooks on a logger.
type LoggingHooks struct {
	logger *log.Logger
}

// LogHooks logs every attempt and cache event at debug level. Failed
// attempts are logged at warn. A nil logger discards everything.
func LogHooks(logger *log.Logger) *LoggingHooks {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LoggingHooks{logger: logger.WithPrefix("http")}
}

func (h *LoggingHooks) OnRequest(_ context.Context, method, url string) {
	h.logger.Debug("request", "method", method, "url", url)
}

func (h *LoggingHooks) OnResponse(_ context.Context, method, url string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "url", url, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *LoggingHooks) OnError(_ context.Context, method, url string, d time.Duration, err error) {
	h.logger.Warn("request failed", "method", method, "url", url, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *LoggingHooks) OnCacheHit(_ context.Context, resource string) {
	h.logger.Debug("cache hit", "key", resource)
}

func (h *LoggingHooks) OnCacheMiss(_ context.Context, resource string) {
	h.logger.Debug("cache miss", "key", resource)
}

func (h *LoggingHooks) OnCacheSet(_ context.Context, resource string, size int) {
	h.logger.Debug("cache set", "key", resource, "bytes", size)
}

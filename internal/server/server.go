// Package server exposes the monitor, the response cache and Prometheus
// metrics over a small HTTP debug surface.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/careflow/pkg/cache"
	"github.com/matzehuels/careflow/pkg/monitor"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:9464"

// Config configures a [Server].
type Config struct {
	Addr    string
	Monitor *monitor.Monitor // required
	Cache   *cache.Store[[]byte]

	// Gatherer backs /metrics. When nil a private registry holding only the
	// monitor collector is used.
	Gatherer prometheus.Gatherer
	Logger   *log.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the debug HTTP server.
type Server struct {
	monitor *monitor.Monitor
	cache   *cache.Store[[]byte]
	logger  *log.Logger
	router  chi.Router
	srv     *http.Server
}

// New builds the router and the underlying http.Server.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Gatherer == nil {
		reg := prometheus.NewRegistry()
		reg.MustRegister(cfg.Monitor.Collector())
		cfg.Gatherer = reg
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	s := &Server{
		monitor: cfg.Monitor,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	r.Route("/debug", func(r chi.Router) {
		r.Get("/dashboard", s.dashboard)
		r.Get("/metrics/api", s.apiMetrics)
		r.Get("/metrics/errors", s.errorMetrics)
		r.Get("/cache", s.cacheStatus)
		r.Delete("/cache", s.cacheDelete)
		r.Post("/monitor/reset", s.resetMonitor)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	s.router = r

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("debug server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

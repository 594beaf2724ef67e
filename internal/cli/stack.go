package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/careflow/internal/config"
	"github.com/matzehuels/careflow/internal/probe"
	"github.com/matzehuels/careflow/pkg/cache"
	"github.com/matzehuels/careflow/pkg/client"
	"github.com/matzehuels/careflow/pkg/monitor"
	"github.com/matzehuels/careflow/pkg/observability"
)

// stack is the set of components every command shares.
type stack struct {
	cfg      *config.Config
	monitor  *monitor.Monitor
	cache    *cache.Store[[]byte]
	client   *client.Client
	registry *prometheus.Registry
}

func (c *CLI) newStack(cfg *config.Config) (*stack, error) {
	reg := prometheus.NewRegistry()

	mon := monitor.New(cfg.MonitorConfig(), monitor.WithLogger(c.Logger.WithPrefix("monitor")))
	if err := reg.Register(mon.Collector()); err != nil {
		return nil, err
	}

	store := cache.New[[]byte](cache.WithDefaultTTL(cfg.Cache.DefaultTTL))
	logHooks := observability.LogHooks(c.Logger)

	cl, err := client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Headers: cfg.Headers(),
		Policy:  cfg.RetryPolicy(),
		Cache:   store,
		Hooks: observability.MultiHTTP(
			observability.MonitorHooks(mon),
			logHooks,
			observability.NewPrometheusHTTPHooks(reg),
		),
		CacheHooks: observability.MultiCache(
			logHooks,
			observability.NewPrometheusCacheHooks(reg),
		),
		Logger: c.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &stack{
		cfg:      cfg,
		monitor:  mon,
		cache:    store,
		client:   cl,
		registry: reg,
	}, nil
}

// prober probes the configured endpoints through the stack's client.
func (s *stack) prober(c *CLI, onTick func(context.Context, []probe.Result)) *probe.Prober {
	return probe.New(s.client, probe.Config{
		Endpoints:   s.cfg.Probe.Endpoints,
		Interval:    s.cfg.Probe.Interval,
		Concurrency: s.cfg.Probe.Concurrency,
		OnTick:      onTick,
		Monitor:     s.monitor,
		Logger:      c.Logger.WithPrefix("probe"),
	})
}

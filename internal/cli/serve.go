package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/careflow/internal/probe"
	"github.com/matzehuels/careflow/internal/publish"
	"github.com/matzehuels/careflow/internal/server"
)

const shutdownTimeout = 5 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen    string
		noPublish bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the probe loop and the debug HTTP server",
		Long: `Probe the configured endpoints every interval and expose the monitor,
the response cache and Prometheus metrics over HTTP.

When publish.redis_addr (or CAREFLOW_REDIS_ADDR) is set, a dashboard
snapshot is written to Redis after every round.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			s, err := c.newStack(cfg)
			if err != nil {
				return err
			}

			var pub *publish.Publisher
			if cfg.Publish.RedisAddr != "" && !noPublish {
				rdb, err := publish.Connect(cfg.Publish.RedisAddr)
				if err != nil {
					return err
				}
				defer rdb.Close()
				pub = publish.New(rdb, cfg.Publish.Key, cfg.Publish.TTL)
				c.Logger.Info("publishing dashboard snapshots", "redis", cfg.Publish.RedisAddr, "key", pub.Key())
			}

			p := s.prober(c, c.onRound(s, pub))
			srv := server.New(server.Config{
				Addr:     cfg.Server.Listen,
				Monitor:  s.monitor,
				Cache:    s.cache,
				Gatherer: s.registry,
				Logger:   c.Logger.WithPrefix("server"),
			})

			ctx := cmd.Context()
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			p.Start(ctx)
			defer p.Stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			c.Logger.Info("shutting down")
			p.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "debug server address (overrides server.listen)")
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "do not publish snapshots to Redis")

	return cmd
}

// onRound logs a round summary and publishes a snapshot when pub is set.
func (c *CLI) onRound(s *stack, pub *publish.Publisher) func(context.Context, []probe.Result) {
	return func(ctx context.Context, results []probe.Result) {
		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}
		h := s.monitor.Health()
		c.Logger.Info("probe round", "endpoints", len(results), "failed", failed, "health", h.Status, "error_rate", h.ErrorRate)

		if pub == nil {
			return
		}
		if err := pub.Publish(ctx, s.monitor.Dashboard()); err != nil {
			c.Logger.Warn("publish failed", "err", err)
		}
	}
}

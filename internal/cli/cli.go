// Package cli implements the careflow command-line interface.
//
// Every command builds the same stack from the loaded configuration: a
// reliability monitor, a response cache, and a resilient client whose
// attempts feed the monitor, the logger, and Prometheus.
//
// # Commands
//
//   - get: fetch a resource through the resilient client
//   - health: run one probe round and print the monitor's verdict
//   - watch: live dashboard of periodic probe rounds
//   - serve: probe loop plus the debug HTTP server
//   - config: print the effective configuration
//   - cache: inspect the response cache
//
// All commands accept --verbose (-v) for debug logging and --config (-c)
// to read a specific configuration file.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/careflow/internal/config"
	"github.com/matzehuels/careflow/pkg/buildinfo"
)

const appName = "careflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogFatal = log.FatalLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "careflow checks and exercises the care coordination API",
		Long:         `careflow talks to the care coordination service through a cached, retrying client and reports how reliable that service currently is.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/careflow/config.toml)")

	root.AddCommand(c.getCommand())
	root.AddCommand(c.healthCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

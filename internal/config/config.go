// Package config loads careflow's TOML configuration file.
//
// Values are resolved in order: built-in defaults, the config file, then
// environment variables. The API token is only ever read from the
// environment and is never written back out.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	careerrors "github.com/matzehuels/careflow/pkg/errors"
	"github.com/matzehuels/careflow/pkg/monitor"
	"github.com/matzehuels/careflow/pkg/retry"
)

const appName = "careflow"

// Environment variables that override the file.
const (
	EnvAPIURL    = "CAREFLOW_API_URL"
	EnvAPIToken  = "CAREFLOW_API_TOKEN"
	EnvRedisAddr = "CAREFLOW_REDIS_ADDR"
)

// Config is the complete configuration.
type Config struct {
	API     APISection     `toml:"api"`
	Cache   CacheSection   `toml:"cache"`
	Retry   RetrySection   `toml:"retry"`
	Monitor MonitorSection `toml:"monitor"`
	Probe   ProbeSection   `toml:"probe"`
	Server  ServerSection  `toml:"server"`
	Publish PublishSection `toml:"publish"`

	token string
}

// APISection configures the care service connection.
type APISection struct {
	BaseURL string            `toml:"base_url"`
	Timeout time.Duration     `toml:"timeout"`
	Headers map[string]string `toml:"headers,omitempty"`
}

// CacheSection configures the response cache.
type CacheSection struct {
	DefaultTTL time.Duration `toml:"default_ttl"`
}

// RetrySection configures backoff.
type RetrySection struct {
	MaxAttempts       int           `toml:"max_attempts"`
	BaseDelay         time.Duration `toml:"base_delay"`
	MaxDelay          time.Duration `toml:"max_delay"`
	BackoffMultiplier float64       `toml:"backoff_multiplier"`
}

// MonitorSection configures the reliability monitor.
type MonitorSection struct {
	SlowThreshold        time.Duration `toml:"slow_threshold"`
	SlowRequestCapacity  int           `toml:"slow_request_capacity"`
	RecentErrorCapacity  int           `toml:"recent_error_capacity"`
	ActivityCapacity     int           `toml:"activity_capacity"`
	HealthyMaxErrorRate  float64       `toml:"healthy_max_error_rate"`
	DegradedMaxErrorRate float64       `toml:"degraded_max_error_rate"`
	DegradedMaxErrors    int           `toml:"degraded_max_errors"`
}

// ProbeSection configures periodic endpoint probing.
type ProbeSection struct {
	Endpoints   []string      `toml:"endpoints"`
	Interval    time.Duration `toml:"interval"`
	Concurrency int           `toml:"concurrency"`
}

// ServerSection configures the debug HTTP server.
type ServerSection struct {
	Listen string `toml:"listen"`
}

// PublishSection configures dashboard snapshots in Redis.
// Publishing is disabled while RedisAddr is empty.
type PublishSection struct {
	RedisAddr string        `toml:"redis_addr"`
	Key       string        `toml:"key"`
	TTL       time.Duration `toml:"ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	mon := monitor.DefaultConfig()
	pol := retry.DefaultPolicy()
	return &Config{
		API: APISection{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Cache: CacheSection{DefaultTTL: 5 * time.Minute},
		Retry: RetrySection{
			MaxAttempts:       pol.MaxAttempts,
			BaseDelay:         pol.BaseDelay,
			MaxDelay:          pol.MaxDelay,
			BackoffMultiplier: pol.BackoffMultiplier,
		},
		Monitor: MonitorSection{
			SlowThreshold:        mon.SlowThreshold,
			SlowRequestCapacity:  mon.SlowRequestCapacity,
			RecentErrorCapacity:  mon.RecentErrorCapacity,
			ActivityCapacity:     mon.ActivityCapacity,
			HealthyMaxErrorRate:  mon.Health.HealthyMaxErrorRate,
			DegradedMaxErrorRate: mon.Health.DegradedMaxErrorRate,
			DegradedMaxErrors:    mon.Health.DegradedMaxErrors,
		},
		Probe: ProbeSection{
			Endpoints:   []string{"/questionnaire", "/caregivers"},
			Interval:    30 * time.Second,
			Concurrency: 4,
		},
		Server:  ServerSection{Listen: "127.0.0.1:9464"},
		Publish: PublishSection{Key: "careflow:dashboard", TTL: 5 * time.Minute},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/careflow/config.toml, falling back
// to ~/.config/careflow/config.toml.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over the defaults and applies environment
// overrides. An empty path means [DefaultPath], which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if err := cfg.decodeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		return careerrors.Wrap(careerrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return careerrors.New(careerrors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.token = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Publish.RedisAddr = v
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return careerrors.New(careerrors.ErrCodeInvalidConfig, format, args...)
	}
	switch {
	case c.API.BaseURL == "":
		return invalid("api.base_url is required (or set %s)", EnvAPIURL)
	case c.API.Timeout <= 0:
		return invalid("api.timeout must be positive")
	case c.Cache.DefaultTTL <= 0:
		return invalid("cache.default_ttl must be positive")
	case c.Retry.MaxAttempts < 1:
		return invalid("retry.max_attempts must be at least 1")
	case c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay <= 0:
		return invalid("retry delays must be positive")
	case c.Retry.BaseDelay > c.Retry.MaxDelay:
		return invalid("retry.base_delay exceeds retry.max_delay")
	case c.Retry.BackoffMultiplier < 1:
		return invalid("retry.backoff_multiplier must be at least 1")
	case c.Monitor.SlowThreshold <= 0:
		return invalid("monitor.slow_threshold must be positive")
	case c.Monitor.HealthyMaxErrorRate < 0 || c.Monitor.HealthyMaxErrorRate > c.Monitor.DegradedMaxErrorRate:
		return invalid("monitor error rate thresholds out of order")
	case c.Monitor.DegradedMaxErrorRate > 100:
		return invalid("monitor.degraded_max_error_rate cannot exceed 100")
	case c.Probe.Interval <= 0:
		return invalid("probe.interval must be positive")
	case c.Probe.Concurrency < 1:
		return invalid("probe.concurrency must be at least 1")
	case c.Publish.RedisAddr != "" && c.Publish.TTL <= 0:
		return invalid("publish.ttl must be positive")
	}
	for _, ep := range c.Probe.Endpoints {
		if err := careerrors.ValidatePath(ep); err != nil {
			return careerrors.Wrap(careerrors.ErrCodeInvalidConfig, err, "probe endpoint %q", ep)
		}
	}
	return nil
}

// RetryPolicy converts the retry section.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:       c.Retry.MaxAttempts,
		BaseDelay:         c.Retry.BaseDelay,
		MaxDelay:          c.Retry.MaxDelay,
		BackoffMultiplier: c.Retry.BackoffMultiplier,
	}
}

// MonitorConfig converts the monitor section.
func (c *Config) MonitorConfig() monitor.Config {
	return monitor.Config{
		SlowThreshold:       c.Monitor.SlowThreshold,
		SlowRequestCapacity: c.Monitor.SlowRequestCapacity,
		RecentErrorCapacity: c.Monitor.RecentErrorCapacity,
		ActivityCapacity:    c.Monitor.ActivityCapacity,
		Health: monitor.HealthPolicy{
			HealthyMaxErrorRate:  c.Monitor.HealthyMaxErrorRate,
			DegradedMaxErrorRate: c.Monitor.DegradedMaxErrorRate,
			DegradedMaxErrors:    c.Monitor.DegradedMaxErrors,
		},
	}
}

// Headers returns the configured API headers plus the bearer token, if any.
func (c *Config) Headers() map[string]string {
	h := make(map[string]string, len(c.API.Headers)+1)
	for k, v := range c.API.Headers {
		h[k] = v
	}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

// HasToken reports whether an API token was supplied.
func (c *Config) HasToken() bool { return c.token != "" }

// Encode writes the effective configuration as TOML. The token is omitted.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

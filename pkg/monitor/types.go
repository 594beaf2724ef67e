package monitor

import (
	"time"

	"github.com/google/uuid"
)

// Defaults for [Config].
const (
	DefaultSlowThreshold       = time.Second
	DefaultSlowRequestCapacity = 20
	DefaultRecentErrorCapacity = 50
	DefaultActivityCapacity    = 100
)

// Error type labels used by top-level capture.
const (
	TypeUnhandledRejection = "unhandled_rejection"
	TypeUncaughtError      = "uncaught_error"
	TypeNetworkError       = "network_error"
)

// Config sizes the monitor's bounded histories and sets its thresholds.
type Config struct {
	SlowThreshold       time.Duration // calls slower than this are kept as slow requests
	SlowRequestCapacity int
	RecentErrorCapacity int
	ActivityCapacity    int
	Health              HealthPolicy
}

// DefaultConfig returns a 1s slow threshold, rings of 20/50/100 and the
// default health policy.
func DefaultConfig() Config {
	return Config{
		SlowThreshold:       DefaultSlowThreshold,
		SlowRequestCapacity: DefaultSlowRequestCapacity,
		RecentErrorCapacity: DefaultRecentErrorCapacity,
		ActivityCapacity:    DefaultActivityCapacity,
		Health:              DefaultHealthPolicy(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = d.SlowThreshold
	}
	if c.SlowRequestCapacity <= 0 {
		c.SlowRequestCapacity = d.SlowRequestCapacity
	}
	if c.RecentErrorCapacity <= 0 {
		c.RecentErrorCapacity = d.RecentErrorCapacity
	}
	if c.ActivityCapacity <= 0 {
		c.ActivityCapacity = d.ActivityCapacity
	}
	if c.Health == (HealthPolicy{}) {
		c.Health = d.Health
	}
	return c
}

// SlowRequest is a call that took longer than the slow threshold.
type SlowRequest struct {
	Time       time.Time     `json:"time"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
}

// APIMetrics aggregates every recorded call.
type APIMetrics struct {
	TotalRequests int           `json:"total_requests"`
	SuccessCount  int           `json:"success_count"`
	ErrorCount    int           `json:"error_count"`
	AvgDuration   time.Duration `json:"avg_duration"`
	SlowRequests  []SlowRequest `json:"slow_requests"`
}

// ErrorRecord is one entry of the recent-errors history.
type ErrorRecord struct {
	ID      uuid.UUID `json:"id"`
	Time    time.Time `json:"time"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Stack   string    `json:"stack,omitempty"`
}

// ErrorMetrics aggregates every recorded error.
type ErrorMetrics struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
	Recent []ErrorRecord  `json:"recent"`
}

// ActivityKind distinguishes user activity entries.
type ActivityKind string

const (
	ActivityInteraction ActivityKind = "interaction"
	ActivityPageView    ActivityKind = "page_view"
)

// Activity is one tracked interaction or page view.
type Activity struct {
	Time    time.Time      `json:"time"`
	Kind    ActivityKind   `json:"kind"`
	Name    string         `json:"name"`
	Details map[string]any `json:"details,omitempty"`
}

// Dashboard is a point-in-time copy of everything the monitor holds.
type Dashboard struct {
	Health         Health         `json:"health"`
	API            APIMetrics     `json:"api"`
	Errors         ErrorMetrics   `json:"errors"`
	PageViews      map[string]int `json:"page_views"`
	Interactions   map[string]int `json:"interactions"`
	RecentActivity []Activity     `json:"recent_activity"`
	StartedAt      time.Time      `json:"started_at"`
	Uptime         time.Duration  `json:"uptime"`
}

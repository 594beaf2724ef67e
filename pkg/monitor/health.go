package monitor

import (
	"fmt"
	"time"
)

// Status is the coarse health verdict.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusError    Status = "error"
)

// HealthPolicy holds the thresholds that turn counters into a [Status].
// The values are deployment policy; retune them rather than deriving them.
type HealthPolicy struct {
	HealthyMaxErrorRate  float64 // percent
	DegradedMaxErrorRate float64 // percent
	DegradedMaxErrors    int     // recorded errors, absolute
}

// DefaultHealthPolicy returns 10% / 25% / 10 errors.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		HealthyMaxErrorRate:  10,
		DegradedMaxErrorRate: 25,
		DegradedMaxErrors:    10,
	}
}

// Health is derived from the aggregates on every call and never stored.
type Health struct {
	Status           Status        `json:"status"`
	ErrorRate        float64       `json:"error_rate"`
	AvgLatency       time.Duration `json:"avg_latency"`
	LastErrorMessage string        `json:"last_error_message,omitempty"`
}

// Classify applies the policy to an error rate and a recorded-error total.
func (p HealthPolicy) Classify(errorRate float64, totalErrors int) Status {
	switch {
	case errorRate <= p.HealthyMaxErrorRate:
		return StatusHealthy
	case errorRate <= p.DegradedMaxErrorRate && totalErrors <= p.DegradedMaxErrors:
		return StatusDegraded
	default:
		return StatusError
	}
}

// errorRate returns errors as a percentage of total, treating zero calls as one.
func errorRate(errors, total int) float64 {
	return float64(errors) * 100 / float64(max(total, 1))
}

// String implements fmt.Stringer for quick status lines.
func (h Health) String() string {
	return fmt.Sprintf("%s (error rate %.1f%%, avg latency %s)", h.Status, h.ErrorRate, h.AvgLatency.Round(time.Millisecond))
}

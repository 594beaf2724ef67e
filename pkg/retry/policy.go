package retry

import (
	"math"
	"time"
)

// Default policy values.
const (
	DefaultMaxAttempts       = 3
	DefaultBaseDelay         = time.Second
	DefaultMaxDelay          = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Policy bounds how often and how patiently an operation is retried.
// It is a plain value: pass a different Policy per call rather than mutating one.
type Policy struct {
	MaxAttempts       int           // Total attempts including the first (minimum 1)
	BaseDelay         time.Duration // Delay before the second attempt
	MaxDelay          time.Duration // Upper bound for any single delay
	BackoffMultiplier float64       // Growth factor between successive delays
}

// DefaultPolicy returns 3 attempts, 1s base delay, 10s cap and multiplier 2.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       DefaultMaxAttempts,
		BaseDelay:         DefaultBaseDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// normalize fills unset or invalid fields from the defaults.
// MaxAttempts below 1 means a single attempt, not the default.
func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.BackoffMultiplier <= 0 {
		p.BackoffMultiplier = DefaultBackoffMultiplier
	}
	return p
}

// Delay returns the wait before attempt n (n >= 2):
//
//	min(BaseDelay * BackoffMultiplier^(n-2), MaxDelay)
//
// Attempts before the second have no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	p = p.normalize()

	d := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-2))
	if math.IsInf(d, 0) || math.IsNaN(d) || d >= float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

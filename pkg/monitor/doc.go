// Package monitor turns call outcomes and errors into a health signal.
//
// A [Monitor] keeps running counters, a running mean latency and three
// bounded histories (slow requests, recent errors, user activity). [Monitor.Health]
// derives a [Status] from those counters on demand using a [HealthPolicy]:
//
//	healthy   error rate <= 10%
//	degraded  error rate <= 25% and at most 10 recorded errors
//	error     otherwise
//
// The monitor is accounting infrastructure. None of its methods panic, and a
// failing logger is ignored, so a bug here cannot take down the request it
// was observing.
//
// Failures nobody handled are captured with [Monitor.Go] and [Monitor.Recover],
// which tag them as unhandled_rejection and uncaught_error respectively.
//
// Monitors are constructed and passed explicitly; there is no package-level
// instance. Tests create their own rather than resetting a shared one.
package monitor

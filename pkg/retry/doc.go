// Package retry re-runs fallible operations with capped exponential backoff.
//
// # Overview
//
// Two entry points share one backoff schedule:
//
//   - [WithRetry] wraps an operation that fails by returning an error.
//     Timeouts and unreachable networks are retried; anything else is
//     returned on first occurrence.
//   - [WithStatusCodeRetry] wraps an operation that returns a response with a
//     status code. 408, 429, 500, 502, 503 and 504 are retried; the final
//     response is returned rather than turned into an error.
//
// # Backoff
//
// The delay before attempt n (n >= 2) is
//
//	min(BaseDelay * BackoffMultiplier^(n-2), MaxDelay)
//
// With the defaults (3 attempts, 1s base, 10s cap, multiplier 2) a failing
// operation runs at t=0, t≈1s and t≈3s.
//
// # Classification
//
// Failures are reduced once to a closed [Kind]: timeout, network
// unreachable, HTTP status, or other. Errors built with
// github.com/matzehuels/careflow/pkg/errors carry their kind as a code;
// standard library network errors are recognised by type.
//
// # Usage
//
//	patient, err := retry.WithRetry(ctx, func(ctx context.Context) (*Patient, error) {
//	    return api.fetchPatient(ctx, id)
//	}, retry.UsePolicy(retry.Policy{MaxAttempts: 4, BaseDelay: 200 * time.Millisecond}))
//
// Observers registered with [OnAttempt] see every attempt, which is how
// callers feed a reliability monitor without this package depending on one.
package retry

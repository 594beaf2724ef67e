package retry

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Response is implemented by results that carry an HTTP-like status.
type Response interface {
	StatusCode() int
}

// Attempt describes one finished attempt, passed to an [OnAttempt] observer.
type Attempt struct {
	Number         int           // 1-based attempt number
	StatusCode     int           // status of the response, 0 if none
	Err            error         // failure returned by the operation, if any
	Classification Classification
	NextDelay      time.Duration // wait before the next attempt; 0 if this was the last
}

// Option configures a single retrying call.
type Option func(*settings)

type settings struct {
	policy  Policy
	clock   clockwork.Clock
	observe func(Attempt)
}

// UsePolicy sets the retry policy for the call.
func UsePolicy(p Policy) Option {
	return func(s *settings) { s.policy = p }
}

// UseClock sets the clock used to wait between attempts.
func UseClock(c clockwork.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// OnAttempt registers fn to be called after every attempt, successful or not.
func OnAttempt(fn func(Attempt)) Option {
	return func(s *settings) { s.observe = fn }
}

func newSettings(opts []Option) settings {
	s := settings{policy: DefaultPolicy(), clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&s)
	}
	s.policy = s.policy.normalize()
	return s
}

func (s settings) notify(a Attempt) {
	if s.observe != nil {
		s.observe(a)
	}
}

// wait blocks for d or until ctx is done, whichever comes first.
func (s settings) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := s.clock.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

// WithRetry runs op until it succeeds, fails with a non-retryable error, or
// the policy's attempts are used up.
//
// Failures are judged by [Classify]: timeouts and unreachable networks are
// retried, everything else is returned immediately. When attempts run out the
// last error is returned unchanged. If ctx is cancelled while waiting between
// attempts, ctx.Err() is returned.
//
// Attempts never overlap: the next one starts only after the previous one
// returned and its backoff delay elapsed.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), opts ...Option) (T, error) {
	s := newSettings(opts)
	var zero T

	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			s.notify(Attempt{Number: attempt})
			return v, nil
		}

		a := Attempt{Number: attempt, Err: err, Classification: Classify(err)}
		if !a.Classification.Retryable || attempt >= s.policy.MaxAttempts {
			s.notify(a)
			return zero, err
		}

		a.NextDelay = s.policy.Delay(attempt + 1)
		s.notify(a)
		if werr := s.wait(ctx, a.NextDelay); werr != nil {
			return zero, werr
		}
	}
}

// WithStatusCodeRetry runs op, which reports failures through a status code
// rather than an error, retrying transient statuses (see [ClassifyStatus]).
//
// A successful or non-retryable status returns at once. When attempts run
// out the final response is returned with a nil error: an unsuccessful HTTP
// answer is not exceptional, and callers inspect the status themselves.
//
// A non-nil error from op is a transport failure with no response. It is
// judged by [Classify] and, if it cannot be retried further, returned with
// the zero response. op must return a non-nil response whenever its error
// is nil.
func WithStatusCodeRetry[R Response](ctx context.Context, op func(context.Context) (R, error), opts ...Option) (R, error) {
	s := newSettings(opts)
	var zero R

	for attempt := 1; ; attempt++ {
		resp, err := op(ctx)

		a := Attempt{Number: attempt, Err: err}
		if err != nil {
			a.Classification = Classify(err)
		} else {
			a.StatusCode = resp.StatusCode()
			a.Classification = ClassifyStatus(a.StatusCode)
		}

		if !a.Classification.Retryable || attempt >= s.policy.MaxAttempts {
			s.notify(a)
			if err != nil {
				return zero, err
			}
			return resp, nil
		}

		a.NextDelay = s.policy.Delay(attempt + 1)
		s.notify(a)
		if werr := s.wait(ctx, a.NextDelay); werr != nil {
			return zero, werr
		}
	}
}

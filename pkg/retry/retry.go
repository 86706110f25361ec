// Package retry re-invokes fallible operations under a bounded, constant-delay
// policy.
//
// Each call walks a small state machine:
//
//	Attempting -> Succeeded | RetryWait | Aborted | Exhausted
//	RetryWait  -> Attempting (after delay) | cancelled
//
// There is no jitter and no exponential backoff. Invocations share nothing;
// every call tracks its own attempt counter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

// ErrInvalidPolicy is returned when maxAttempts < 1 or delay < 0.
var ErrInvalidPolicy = errors.New("retry: invalid policy")

// ExhaustedError reports that every attempt failed. Last is the failure
// observed on the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("operation failed after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Policy bundles the bounds of a retry loop, typically built from config.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do invokes op until it succeeds, the failure is filtered out, attempts are
// exhausted or ctx is cancelled while waiting between attempts.
//
// A failure rejected by the configured filter is returned unaltered after the
// attempt that produced it. Cancellation is only observed between attempts;
// a running op is never interrupted and ctx.Err() is returned as is.
func Do[T any](ctx context.Context, op func() (T, error), maxAttempts int, delay time.Duration, opts ...Option) (T, error) {
	var zero T
	if maxAttempts < 1 || delay < 0 {
		return zero, fmt.Errorf("%w: maxAttempts=%d delay=%s", ErrInvalidPolicy, maxAttempts, delay)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s := newSettings(opts)
	entry := log.WithTrace(ctx).WithField("operation", s.name)
	span := trace.SpanFromContext(ctx)

	var last error
	for attempt := 1; ; attempt++ {
		s.observe(attempt, Attempting, nil)
		v, err := op()
		if err == nil {
			s.observe(attempt, Succeeded, nil)
			return v, nil
		}
		last = err
		span.AddEvent("retry.attempt_failed", trace.WithAttributes(
			attribute.String("retry.operation", s.name),
			attribute.Int("retry.attempt", attempt),
		))

		if s.retryable != nil && !s.retryable(err) {
			entry.WithError(err).Errorf("attempt %d failed with non-retryable error, giving up", attempt)
			s.observe(attempt, Aborted, err)
			return zero, err
		}
		if attempt >= maxAttempts {
			break
		}

		entry.WithError(err).Warnf("attempt %d failed, retrying in %s", attempt, delay)
		s.observe(attempt, RetryWait, err)
		if werr := wait(ctx, delay); werr != nil {
			entry.WithError(werr).Warnf("retry wait interrupted after attempt %d", attempt)
			return zero, werr
		}
	}

	entry.WithError(last).Errorf("all %d attempts failed", maxAttempts)
	s.observe(maxAttempts, Exhausted, last)
	return zero, &ExhaustedError{Attempts: maxAttempts, Last: last}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, op func() error, maxAttempts int, delay time.Duration, opts ...Option) error {
	_, err := Do(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, maxAttempts, delay, opts...)
	return err
}

// DoPolicy is Do with bounds taken from p.
func DoPolicy[T any](ctx context.Context, p Policy, op func() (T, error), opts ...Option) (T, error) {
	return Do(ctx, op, p.MaxAttempts, p.Delay, opts...)
}

// RunPolicy is Run with bounds taken from p.
func RunPolicy(ctx context.Context, p Policy, op func() error, opts ...Option) error {
	return Run(ctx, op, p.MaxAttempts, p.Delay, opts...)
}

func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

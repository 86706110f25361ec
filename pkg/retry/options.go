package retry

import (
	"context"
	"errors"

	"github.com/Goden-Gun/fault-lib/pkg/fault"
)

// State is a step of the retry state machine.
type State int

const (
	Attempting State = iota
	Succeeded
	RetryWait
	Aborted
	Exhausted
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Succeeded:
		return "succeeded"
	case RetryWait:
		return "retry_wait"
	case Aborted:
		return "aborted"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// Observer receives every state transition of a retry loop.
//
// It is metrics-backend agnostic; pkg/metrics ships a Prometheus one.
type Observer interface {
	ObserveRetry(operation string, attempt int, state State, err error)
}

// Option customises a single Do/Run call.
type Option func(*settings)

type settings struct {
	name      string
	retryable func(error) bool
	observer  Observer
}

func newSettings(opts []Option) settings {
	s := settings{name: "operation"}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

func (s *settings) observe(attempt int, state State, err error) {
	if s.observer != nil {
		s.observer.ObserveRetry(s.name, attempt, state, err)
	}
}

// WithName labels logs, spans and observations.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithObserver installs an Observer.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// OnlyIf retries only failures for which match returns true.
func OnlyIf(match func(error) bool) Option {
	return func(s *settings) { s.retryable = match }
}

// On retries only failures whose chain contains an E.
//
//	retry.Do(ctx, call, 3, time.Second, retry.On[*net.OpError]())
func On[E error]() Option {
	return OnlyIf(func(err error) bool {
		var target E
		return errors.As(err, &target)
	})
}

// OnRetryable retries faults with a transient code and unclassified errors,
// and never retries context cancellation or deadline errors.
func OnRetryable() Option {
	return OnlyIf(Retryable)
}

// Retryable is the predicate behind OnRetryable.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if f, ok := fault.As(err); ok {
		return f.Code().IsTransient()
	}
	return true
}

// Package diagnostics receives the full detail of every translated failure.
//
// The wire envelope hides internal text; sinks here get the cause chain,
// trace and request ids. A sink must never fail the caller: problems are
// logged and swallowed.
package diagnostics

import (
	"context"
	"errors"
	"time"

	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

// DefaultSinkTimeout bounds one remote write by a sink.
const DefaultSinkTimeout = 2 * time.Second

// detach keeps ctx values but drops its cancellation, so a client
// disconnect does not abort the write, and caps it at DefaultSinkTimeout.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), DefaultSinkTimeout)
}

// Event is one failure observed at a boundary.
type Event struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    int       `json:"status"`
	Category  string    `json:"category"`
	Path      string    `json:"path"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Causes    []string  `json:"causes,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Err is the original failure; not serialised.
	Err error `json:"-"`
}

// Sink records events.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Record(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

type multi []Sink

func (m multi) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Record(ctx, ev)
	}
}

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// CauseChain flattens err into one message per unwrap step, outermost
// first. Joined errors are walked depth first.
func CauseChain(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		for e != nil {
			out = append(out, e.Error())
			if joined, ok := e.(interface{ Unwrap() []error }); ok {
				for _, inner := range joined.Unwrap() {
					walk(inner)
				}
				return
			}
			e = errors.Unwrap(e)
		}
	}
	walk(err)
	return out
}

// EnrichFromContext fills request and trace ids from ctx when missing.
func (ev *Event) EnrichFromContext(ctx context.Context) {
	if ev.RequestID == "" {
		ev.RequestID = log.RequestIDFromContext(ctx)
	}
	if ev.TraceID == "" {
		ev.TraceID = log.TraceIDFromContext(ctx)
	}
}

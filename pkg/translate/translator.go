// Package translate turns any failure observed at a request boundary into
// the failure envelope and its wire status.
//
// Translation is total: every error, including nil and errors from
// unknown packages, yields a well-formed envelope. Uncaught failures are
// rendered with a fixed generic message; their real text goes only to the
// diagnostics sink.
package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
	"github.com/Goden-Gun/fault-lib/pkg/envelope"
	log "github.com/Goden-Gun/fault-lib/pkg/logger"
	"github.com/Goden-Gun/fault-lib/pkg/tracing"
)

// Client-facing messages per category.
const (
	MsgValidationFailed    = "Validation failed"
	MsgConstraintViolation = "Constraint violation"
	MsgInvalidBody         = "Invalid request body format"
	MsgMissingParamFmt     = "Required parameter '%s' is missing"
	MsgMissingParam        = "Missing required parameter"
	MsgTypeMismatchFmt     = "Invalid value '%s' for parameter '%s'"
	MsgTypeMismatch        = "Invalid parameter type"
	MsgMethodFmt           = "Method '%s' is not supported"
	MsgMethodNotAllowed    = "Method not allowed"
	MsgEndpointNotFound    = "Endpoint not found"
	MsgUnexpected          = "An unexpected error occurred"
	MsgInternal            = "Internal server error"
)

// MetadataRequestID is the metadata key carrying the request id.
const MetadataRequestID = "requestId"

var errNilFailure = errors.New("translate called with nil error")

// Result is a rendered failure: the wire status and the envelope to write.
type Result struct {
	Status int
	Body   *envelope.ApiResponse[*envelope.ErrorResponse]
}

// Observer is told about every translated failure.
type Observer interface {
	ObserveTranslation(code codes.ErrorCode, category Category)
}

// Options configures a Translator. The zero value logs through LogSink
// and uses the wall clock.
type Options struct {
	Sink     diagnostics.Sink
	Observer Observer
	Clock    func() time.Time
	// ExposeMalformedDetails copies the decoder error into details for
	// malformed bodies.
	ExposeMalformedDetails bool
}

// Translator renders failures. It holds no mutable state and is safe for
// concurrent use.
type Translator struct {
	sink            diagnostics.Sink
	observer        Observer
	clock           func() time.Time
	exposeMalformed bool
}

func New(opts Options) *Translator {
	t := &Translator{
		sink:            opts.Sink,
		observer:        opts.Observer,
		clock:           opts.Clock,
		exposeMalformed: opts.ExposeMalformedDetails,
	}
	if t.sink == nil {
		t.sink = diagnostics.LogSink{}
	}
	if t.clock == nil {
		t.clock = time.Now
	}
	return t
}

// Translate renders err for the request addressed at path.
func (t *Translator) Translate(ctx context.Context, path string, err error) (res Result) {
	now := t.clock()
	defer func() {
		if r := recover(); r != nil {
			log.WithTrace(ctx).WithField("path", path).Errorf("translate: recovered from panic: %v", r)
			res = uncaughtResult(path, now)
		}
	}()

	if err == nil {
		err = errNilFailure
	}
	failure := Classify(err)
	resp, summary := t.render(failure, path, now)
	if id := log.RequestIDFromContext(ctx); id != "" {
		resp.WithMetadata(map[string]any{MetadataRequestID: id})
	}
	t.record(ctx, failure, resp, err, now)
	return Result{Status: resp.Status, Body: envelope.Fail(summary, resp)}
}

// Render is Translate without diagnostics, tracing or metrics.
func Render(path string, failure Failure, now time.Time) Result {
	t := &Translator{}
	resp, summary := t.render(failure, path, now)
	return Result{Status: resp.Status, Body: envelope.Fail(summary, resp)}
}

func (t *Translator) render(failure Failure, path string, now time.Time) (*envelope.ErrorResponse, string) {
	switch f := failure.(type) {
	case *Business:
		code := f.Fault.Code()
		resp := envelope.NewErrorResponse(code.Code, f.Fault.Message(), code.Status, path, now).
			WithDetails(f.Fault.Details()).
			WithMetadata(f.Fault.Metadata())
		return resp, f.Fault.Message()

	case *ValidationFailure:
		msg := MsgValidationFailed
		if f.Constraint {
			msg = MsgConstraintViolation
		}
		resp := envelope.NewErrorResponse(codes.ValidationError.Code, msg, codes.ValidationError.Status, path, now)
		for _, v := range f.Violations {
			resp.WithFieldErrors(envelope.FieldError{Field: v.Field, Message: v.Message, RejectedValue: v.Rejected})
		}
		return resp, msg

	case *MalformedBody:
		resp := envelope.NewErrorResponse(codes.InvalidFormat.Code, MsgInvalidBody, codes.InvalidFormat.Status, path, now)
		if t.exposeMalformed && f.Cause != nil {
			resp.WithDetails(f.Cause.Error())
		}
		return resp, MsgInvalidBody

	case *MissingParameter:
		code := codes.MissingRequiredField
		return envelope.NewErrorResponse(code.Code, fmt.Sprintf(MsgMissingParamFmt, f.Name), code.Status, path, now), MsgMissingParam

	case *TypeMismatch:
		code := codes.InvalidInput
		return envelope.NewErrorResponse(code.Code, fmt.Sprintf(MsgTypeMismatchFmt, f.Value, f.Name), code.Status, path, now), MsgTypeMismatch

	case *MethodNotAllowed:
		code := codes.MethodNotAllowed
		resp := envelope.NewErrorResponse(code.Code, fmt.Sprintf(MsgMethodFmt, f.Method), code.Status, path, now)
		if len(f.Allowed) > 0 {
			resp.WithMetadata(map[string]any{"allowedMethods": append([]string(nil), f.Allowed...)})
		}
		return resp, MsgMethodNotAllowed

	case *NoRoute:
		code := codes.NotFound
		return envelope.NewErrorResponse(code.Code, MsgEndpointNotFound, code.Status, path, now), MsgEndpointNotFound

	case *Uncaught:
		return uncaughtResponse(path, now), MsgInternal
	}
	return uncaughtResponse(path, now), MsgInternal
}

func uncaughtResponse(path string, now time.Time) *envelope.ErrorResponse {
	code := codes.InternalServerError
	return envelope.NewErrorResponse(code.Code, MsgUnexpected, code.Status, path, now)
}

func uncaughtResult(path string, now time.Time) Result {
	resp := uncaughtResponse(path, now)
	return Result{Status: resp.Status, Body: envelope.Fail(MsgInternal, resp)}
}

// CodeOf returns the error code a failure renders with.
func CodeOf(failure Failure) codes.ErrorCode {
	switch f := failure.(type) {
	case *Business:
		return f.Fault.Code()
	case *ValidationFailure:
		return codes.ValidationError
	case *MalformedBody:
		return codes.InvalidFormat
	case *MissingParameter:
		return codes.MissingRequiredField
	case *TypeMismatch:
		return codes.InvalidInput
	case *MethodNotAllowed:
		return codes.MethodNotAllowed
	case *NoRoute:
		return codes.NotFound
	}
	return codes.InternalServerError
}

func (t *Translator) record(ctx context.Context, failure Failure, resp *envelope.ErrorResponse, err error, now time.Time) {
	code := CodeOf(failure)
	ev := diagnostics.Event{
		Code:      code.Code,
		Name:      code.Name,
		Status:    resp.Status,
		Category:  failure.Category().String(),
		Path:      resp.Path,
		Message:   failure.Error(),
		Details:   resp.Details,
		Causes:    diagnostics.CauseChain(err),
		Timestamp: now.UTC(),
		Err:       err,
	}
	ev.EnrichFromContext(ctx)
	guard(ctx, "sink", func() { t.sink.Record(ctx, ev) })
	if t.observer != nil {
		guard(ctx, "observer", func() { t.observer.ObserveTranslation(code, failure.Category()) })
	}
	guard(ctx, "tracing", func() { tracing.RecordFault(ctx, code, err) })
}

// guard runs one recording step; a panic there is logged and never
// changes the rendered envelope.
func guard(ctx context.Context, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithTrace(ctx).WithField("step", step).Errorf("translate: recovered from panic: %v", r)
		}
	}()
	fn()
}

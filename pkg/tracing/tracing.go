package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
)

const traceMetadataKey = "x-trace-id"

// Span attribute keys set by RecordFault.
const (
	AttrErrorCode   = attribute.Key("fault.code")
	AttrErrorName   = attribute.Key("fault.name")
	AttrErrorStatus = attribute.Key("fault.status")
)

var propagator = propagation.TraceContext{}

// InjectMetadata injects tracing context into gRPC metadata.
func InjectMetadata(ctx context.Context, md metadata.MD) metadata.MD {
	if md == nil {
		md = metadata.New(nil)
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(md))
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		md.Set(traceMetadataKey, span.SpanContext().TraceID().String())
	}
	return md
}

// ExtractMetadata extracts tracing context from metadata.
func ExtractMetadata(ctx context.Context, md metadata.MD) context.Context {
	if md == nil {
		return ctx
	}
	ctx = propagator.Extract(ctx, propagation.HeaderCarrier(md))
	if traceIDs := md.Get(traceMetadataKey); len(traceIDs) > 0 {
		span := trace.SpanFromContext(ctx)
		span.SetAttributes(attribute.String(traceMetadataKey, traceIDs[0]))
	}
	return ctx
}

// RecordFault marks the active span as failed with the given code. Only
// server-side codes (status >= 500) set the span status to Error; client
// faults are recorded as attributes and an event.
func RecordFault(ctx context.Context, code codes.ErrorCode, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		AttrErrorCode.String(code.Code),
		AttrErrorName.String(code.Name),
		AttrErrorStatus.Int(code.Status),
	)
	if err != nil {
		span.RecordError(err, trace.WithAttributes(AttrErrorCode.String(code.Code)))
	}
	if code.Status >= 500 {
		span.SetStatus(otelcodes.Error, code.Message)
	}
}

// Tracer returns named tracer for fault-handling components.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

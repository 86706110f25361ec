package logger

import (
	"context"
	"io"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Package logger is a thin wrapper around logrus' standard logger.
//
// It is imported as `log` so fault handling, retries and the HTTP/gRPC
// boundaries share one backend configured by pkg/bootstrap.

type Fields = log.Fields
type Entry = log.Entry
type Logger = log.Logger
type Level = log.Level
type Hook = log.Hook

const (
	ErrorLevel = log.ErrorLevel
	WarnLevel  = log.WarnLevel
	InfoLevel  = log.InfoLevel
	DebugLevel = log.DebugLevel
)

func StandardLogger() *Logger                { return log.StandardLogger() }
func SetLevel(level Level)                   { log.SetLevel(level) }
func SetOutput(out io.Writer)                { log.SetOutput(out) }
func IsLevelEnabled(level Level) bool        { return log.IsLevelEnabled(level) }
func WithField(key string, value any) *Entry { return log.WithField(key, value) }
func WithFields(fields Fields) *Entry        { return log.WithFields(fields) }
func WithError(err error) *Entry             { return log.WithError(err) }

type requestIDKey struct{}

// ContextWithRequestID stores the request id used to correlate log lines and
// error envelopes.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored on ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// TraceIDFromContext returns the OpenTelemetry trace id on ctx, if any.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// WithTrace binds ctx and adds "trace_id" and "request_id" when present.
func WithTrace(ctx context.Context) *Entry {
	if ctx == nil {
		return log.NewEntry(log.StandardLogger())
	}
	e := log.WithContext(ctx)
	if id := TraceIDFromContext(ctx); id != "" {
		e = e.WithField("trace_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		e = e.WithField("request_id", id)
	}
	return e
}

func Debug(args ...any) { log.Debug(args...) }
func Info(args ...any)  { log.Info(args...) }
func Warn(args ...any)  { log.Warn(args...) }
func Error(args ...any) { log.Error(args...) }
func Fatal(args ...any) { log.Fatal(args...) }

func Debugf(format string, args ...any) { log.Debugf(format, args...) }
func Infof(format string, args ...any)  { log.Infof(format, args...) }
func Warnf(format string, args ...any)  { log.Warnf(format, args...) }
func Errorf(format string, args ...any) { log.Errorf(format, args...) }
func Fatalf(format string, args ...any) { log.Fatalf(format, args...) }

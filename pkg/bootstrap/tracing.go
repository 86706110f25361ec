package bootstrap

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Goden-Gun/fault-lib/pkg/config"
)

// ShutdownFunc 关闭函数类型
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTracing 初始化 OpenTelemetry 分布式追踪
// 始终安装 W3C TraceContext 传播器，Kafka 故障事件依赖它注入 header
// 返回 shutdown 函数用于优雅关闭
func InitTracing(ctx context.Context, cfg config.TracingConfig) (ShutdownFunc, error) {
	return initTracing(ctx, cfg, nil)
}

func initTracing(ctx context.Context, cfg config.TracingConfig, stdout io.Writer) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporterName := cfg.Exporter
	if exporterName == "" || exporterName == "disabled" || exporterName == "none" {
		return noopShutdown, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch exporterName {
	case "stdout":
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if stdout != nil {
			opts = append(opts, stdouttrace.WithWriter(stdout))
		}
		exporter, err = stdouttrace.New(opts...)
	case "otlp", "otlp-grpc":
		clientOpts := []otlptracegrpc.Option{}
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		exporter, err = otlptracegrpc.New(ctx, clientOpts...)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", exporterName)
	}
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "unknown-service"
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	for k, v := range cfg.ResourceTags {
		attrs = append(attrs, attribute.String(k, v))
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, err
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

package bootstrap

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/fault-lib/pkg/config"
	"github.com/Goden-Gun/fault-lib/pkg/diagnostics"
	"github.com/Goden-Gun/fault-lib/pkg/kafka"
	"github.com/Goden-Gun/fault-lib/pkg/metrics"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

// FaultStack 故障处理组件集合
type FaultStack struct {
	Translator *translate.Translator
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Sink       diagnostics.Sink
	Counter    *diagnostics.RedisCounter
	Redis      *redis.Client
	Kafka      *kafka.Manager
}

// StackOptions 允许注入已有客户端，主要用于测试
type StackOptions struct {
	Redis redis.UniversalClient
	Kafka *kafka.Manager
}

// InitFaultStack 根据配置组装 Translator 及其诊断输出
// 日志 sink 始终启用；Redis 计数和 Kafka 事件按配置启用
func InitFaultStack(ctx context.Context, cfg *config.Config) (*FaultStack, error) {
	var opts StackOptions
	var redisClient *redis.Client

	if cfg.Redis.Enabled() {
		client, err := InitRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = client
		opts.Redis = client
	}

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry, cfg.Metrics.Namespace)

	if cfg.Kafka.Enabled {
		manager, err := InitKafka(cfg.Kafka, collector)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, err
		}
		opts.Kafka = manager
	}

	stack := NewFaultStack(cfg, registry, collector, opts)
	stack.Redis = redisClient
	log.WithFields(log.Fields{
		"redis": redisClient != nil,
		"kafka": opts.Kafka != nil,
	}).Info("fault stack initialized")
	return stack, nil
}

// NewFaultStack 使用已建立的连接组装组件，不做网络探测
func NewFaultStack(cfg *config.Config, registry *prometheus.Registry, collector *metrics.Collector, opts StackOptions) *FaultStack {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if collector == nil {
		collector = metrics.New(registry, cfg.Metrics.Namespace)
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	stack := &FaultStack{
		Metrics:  collector,
		Registry: registry,
		Kafka:    opts.Kafka,
	}

	sinks := []diagnostics.Sink{diagnostics.LogSink{}}
	if opts.Redis != nil {
		stack.Counter = newCounter(opts.Redis, cfg.Diagnostics)
		sinks = append(sinks, stack.Counter)
	}
	if opts.Kafka != nil {
		sinks = append(sinks, diagnostics.NewKafkaSink(opts.Kafka, cfg.Diagnostics.Topic))
	}
	stack.Sink = diagnostics.Multi(sinks...)

	stack.Translator = translate.New(translate.Options{
		Sink:                   stack.Sink,
		Observer:               collector,
		ExposeMalformedDetails: cfg.Diagnostics.ExposeMalformedDetails,
	})
	return stack
}

// Close 关闭 Kafka 与 Redis 连接
func (s *FaultStack) Close(context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.Kafka != nil {
		errs = append(errs, s.Kafka.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warnf("fault stack close: %v", err)
		return err
	}
	return nil
}

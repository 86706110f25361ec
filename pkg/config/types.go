package config

import (
	"time"

	"github.com/Goden-Gun/fault-lib/pkg/kafka"
	"github.com/Goden-Gun/fault-lib/pkg/retry"
)

// Config fault-lib 完整配置
type Config struct {
	App         AppConfig         `yaml:"app" mapstructure:"app"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Redis       RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka" mapstructure:"kafka"`
	Tracing     TracingConfig     `yaml:"tracing" mapstructure:"tracing"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" mapstructure:"diagnostics"`
}

// ApplyDefaults 应用所有子配置默认值
func (c *Config) ApplyDefaults() {
	c.App.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Diagnostics.ApplyDefaults()
}

// ==================== 基础配置 (所有服务都需要) ====================

// AppConfig 应用基础配置
type AppConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Env    string `yaml:"env" mapstructure:"env"`
	Port   int    `yaml:"port" mapstructure:"port"`
	NodeID string `yaml:"node_id" mapstructure:"node_id"`
}

// LogConfig 日志配置
type LogConfig struct {
	Format       string        `yaml:"format" mapstructure:"format"`
	Level        string        `yaml:"level" mapstructure:"level"`
	ReportCaller bool          `yaml:"report_caller" mapstructure:"report_caller"`
	File         LogFileConfig `yaml:"file" mapstructure:"file"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Filename     string `yaml:"filename" mapstructure:"filename"`
	MaxAgeDays   int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	RotationDays int    `yaml:"rotation_days" mapstructure:"rotation_days"`
}

// ==================== 基础设施配置 ====================

// RedisConfig Redis 连接配置，Addr 为空时不启用故障计数
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Db       int    `yaml:"db" mapstructure:"db"`
}

// Enabled 是否配置了 Redis
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled" mapstructure:"enabled"`
	Brokers       []string `yaml:"brokers" mapstructure:"brokers"`
	Topic         string   `yaml:"topic" mapstructure:"topic"`
	ClientID      string   `yaml:"client_id" mapstructure:"client_id"`
	Username      string   `yaml:"username" mapstructure:"username"`
	Password      string   `yaml:"password" mapstructure:"password"`
	SASLMechanism string   `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"`
	TLSEnabled    bool     `yaml:"tls_enabled" mapstructure:"tls_enabled"`
	RequiredAcks  string   `yaml:"required_acks" mapstructure:"required_acks"`
	MaxAttempts   int      `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Producer 转换为 kafka.Config
func (k KafkaConfig) Producer() kafka.Config {
	return kafka.Config{
		Brokers:       append([]string(nil), k.Brokers...),
		Topic:         k.Topic,
		ClientID:      k.ClientID,
		Username:      k.Username,
		Password:      k.Password,
		SASLMechanism: k.SASLMechanism,
		TLSEnabled:    k.TLSEnabled,
		RequiredAcks:  k.RequiredAcks,
		MaxAttempts:   k.MaxAttempts,
	}
}

// ==================== 可观测性配置 ====================

// TracingConfig 分布式追踪配置
type TracingConfig struct {
	Exporter     string            `yaml:"exporter" mapstructure:"exporter"`
	Endpoint     string            `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName  string            `yaml:"service_name" mapstructure:"service_name"`
	Insecure     bool              `yaml:"insecure" mapstructure:"insecure"`
	Headers      map[string]string `yaml:"headers" mapstructure:"headers"`
	SampleRatio  float64           `yaml:"sample_ratio" mapstructure:"sample_ratio"`
	ResourceTags map[string]string `yaml:"resource_tags" mapstructure:"resource_tags"`
}

// MetricsConfig 指标暴露配置
type MetricsConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// ==================== 故障处理配置 ====================

// RetryConfig 重试配置，固定间隔，无抖动
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	DelayMillis int `yaml:"delay_millis" mapstructure:"delay_millis"`
}

// Policy 转换为 retry.Policy
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.MaxAttempts,
		Delay:       time.Duration(r.DelayMillis) * time.Millisecond,
	}
}

// DiagnosticsConfig 故障诊断输出配置
type DiagnosticsConfig struct {
	// Topic 故障事件 Kafka topic，Kafka 未启用时忽略
	Topic string `yaml:"topic" mapstructure:"topic"`
	// CounterPrefix Redis 计数 key 前缀
	CounterPrefix string `yaml:"counter_prefix" mapstructure:"counter_prefix"`
	// CounterTTL 计数保留时长，支持秒数或 "168h"
	CounterTTL Duration `yaml:"counter_ttl" mapstructure:"counter_ttl"`
	// ExposeMalformedDetails 是否在响应中返回请求体解析错误
	ExposeMalformedDetails bool `yaml:"expose_malformed_details" mapstructure:"expose_malformed_details"`
}

package config

import "os"

// ==================== AppConfig 默认值 ====================

// ApplyDefaults 应用 App 配置默认值
func (a *AppConfig) ApplyDefaults() {
	if a.Name == "" {
		a.Name = "fault-lib"
	}
	if a.Env == "" {
		a.Env = GetEnv()
	}
	if a.Port <= 0 {
		a.Port = 8080
	}
	if a.NodeID == "" {
		a.NodeID = GetNodeID("NODE_ID", "POD_NAME")
	}
}

// ==================== LogConfig 默认值 ====================

// ApplyDefaults 应用日志配置默认值
func (l *LogConfig) ApplyDefaults() {
	if l.Format == "" {
		l.Format = "json"
	}
	if l.Level == "" {
		l.Level = "info"
	}
	if l.File.Dir == "" {
		l.File.Dir = "./logs"
	}
	if l.File.MaxAgeDays <= 0 {
		l.File.MaxAgeDays = 7
	}
	if l.File.RotationDays <= 0 {
		l.File.RotationDays = 1
	}
}

// ==================== KafkaConfig 默认值 ====================

// ApplyDefaults 应用 Kafka 配置默认值
func (k *KafkaConfig) ApplyDefaults() {
	if k.ClientID == "" {
		if host, err := os.Hostname(); err == nil {
			k.ClientID = host
		}
	}
	if k.RequiredAcks == "" {
		k.RequiredAcks = "all"
	}
	if k.MaxAttempts <= 0 {
		k.MaxAttempts = 3
	}
}

// ==================== MetricsConfig 默认值 ====================

// ApplyDefaults 应用 Metrics 配置默认值
func (m *MetricsConfig) ApplyDefaults() {
	if m.Addr == "" {
		m.Addr = ":9090"
	}
}

// ==================== TracingConfig 默认值 ====================

// ApplyDefaults 应用 Tracing 配置默认值
func (t *TracingConfig) ApplyDefaults() {
	if t.Exporter == "" {
		t.Exporter = "stdout"
	}
	if t.SampleRatio <= 0 {
		t.SampleRatio = 1.0
	}
}

// ==================== RetryConfig 默认值 ====================

// ApplyDefaults 应用重试默认值: 3 次，间隔 1000ms
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 3
	}
	if r.DelayMillis <= 0 {
		r.DelayMillis = 1000
	}
}

// ==================== DiagnosticsConfig 默认值 ====================

// ApplyDefaults 应用诊断配置默认值
func (d *DiagnosticsConfig) ApplyDefaults() {
	if d.Topic == "" {
		d.Topic = "fault-events"
	}
	if d.CounterPrefix == "" {
		d.CounterPrefix = "fault:count:"
	}
	if d.CounterTTL <= 0 {
		d.CounterTTL = Duration(7 * 24 * 3600)
	}
}

// Package metrics exports fault handling counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Goden-Gun/fault-lib/pkg/codes"
	"github.com/Goden-Gun/fault-lib/pkg/retry"
	"github.com/Goden-Gun/fault-lib/pkg/translate"
)

// Collector implements translate.Observer, retry.Observer and
// kafka.PublishObserver.
type Collector struct {
	// Translations counts translated failures by code, status and category
	Translations *prometheus.CounterVec
	// RetryTransitions counts retry state transitions by operation and state
	RetryTransitions *prometheus.CounterVec
	// PublishLatency tracks fault event publish latency
	PublishLatency *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Collector{
		Translations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fault_translations_total",
				Help:      "Total number of failures translated into error envelopes",
			},
			[]string{"code", "status", "category"},
		),
		RetryTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_transitions_total",
				Help:      "Total number of retry state transitions",
			},
			[]string{"operation", "state"},
		),
		PublishLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "kafka_publish_seconds",
				Help:      "Fault event publish latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"topic", "result"},
		),
		gatherer: reg,
	}
}

func (c *Collector) ObserveTranslation(code codes.ErrorCode, category translate.Category) {
	c.Translations.WithLabelValues(code.Code, strconv.Itoa(code.Status), category.String()).Inc()
}

func (c *Collector) ObserveRetry(operation string, _ int, state retry.State, _ error) {
	c.RetryTransitions.WithLabelValues(operation, state.String()).Inc()
}

func (c *Collector) ObservePublish(topic string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.PublishLatency.WithLabelValues(topic, result).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

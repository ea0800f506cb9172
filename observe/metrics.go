package observe

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the memory store and the
// dispatch loop.
type Metrics struct {
	TurnsAppended    *prometheus.CounterVec
	Compactions      *prometheus.CounterVec
	ToolCalls        *prometheus.CounterVec
	InferenceErrors  *prometheus.CounterVec
	InferenceLatency prometheus.Histogram
	StoreSize        prometheus.Gauge
}

// NewMetrics registers all instruments under the given namespace on the
// default registry.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_appended_total",
			Help:      "Turns appended to the memory log by role.",
		}, []string{"role"}),
		Compactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compactions_total",
			Help:      "Log compactions by mode (summary or truncate fallback).",
		}, []string{"mode"}),
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Dispatched tool calls by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		InferenceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_errors_total",
			Help:      "Inference round failures by kind (timeout or transport).",
		}, []string{"kind"}),
		InferenceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_seconds",
			Help:      "Latency of a single inference round trip.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		StoreSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_log_turns",
			Help:      "Current number of turns held in the memory log.",
		}),
	}
}

// ObserveAppend records one appended turn and the resulting log length.
func (m *Metrics) ObserveAppend(role string, storeLen int) {
	if m == nil {
		return
	}
	m.TurnsAppended.WithLabelValues(role).Inc()
	m.StoreSize.Set(float64(storeLen))
}

// ObserveCompaction records a compaction by mode ("summary" or "truncate").
func (m *Metrics) ObserveCompaction(mode string, storeLen int) {
	if m == nil {
		return
	}
	m.Compactions.WithLabelValues(mode).Inc()
	m.StoreSize.Set(float64(storeLen))
}

// ObserveStoreSize updates the log length gauge.
func (m *Metrics) ObserveStoreSize(storeLen int) {
	if m == nil {
		return
	}
	m.StoreSize.Set(float64(storeLen))
}

// ObserveToolCall records one dispatched tool call.
func (m *Metrics) ObserveToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// ObserveInference records the latency of an inference round and, when kind
// is non-empty, a failure of that kind.
func (m *Metrics) ObserveInference(d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.InferenceLatency.Observe(d.Seconds())
	if kind != "" {
		m.InferenceErrors.WithLabelValues(kind).Inc()
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

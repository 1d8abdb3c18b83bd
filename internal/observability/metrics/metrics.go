// Package metrics exposes the Prometheus instruments for the chat pipeline.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "liventy"

// ChatMetrics instruments turn processing. All methods are nil-receiver safe
// so callers can run without a registry wired in.
type ChatMetrics struct {
	turnsTotal    *prometheus.CounterVec
	llmLatency    prometheus.Histogram
	leadsTotal    prometheus.Counter
	notifyFailure prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns processed, labeled by detected intent and whether the fallback responder answered.",
		}, []string{"intent", "fallback"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of language model completions.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		leadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "leads_created_total",
			Help:      "Lead records written by the consent gate.",
		}),
		notifyFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "notify_failures_total",
			Help:      "Lead notification deliveries that failed.",
		}),
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency, m.leadsTotal, m.notifyFailure)
	return m
}

func (m *ChatMetrics) TurnProcessed(intent string, fallback bool) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, strconv.FormatBool(fallback)).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}

func (m *ChatMetrics) LeadCreated() {
	if m == nil {
		return
	}
	m.leadsTotal.Inc()
}

func (m *ChatMetrics) NotifyFailed() {
	if m == nil {
		return
	}
	m.notifyFailure.Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks the submission pipeline: outcomes, delivery failure kinds,
// order store mode and wizard sessions opened for recovery.
type OrderMetrics struct {
	submissions    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	storageMemory  prometheus.Gauge
	wizardSessions *prometheus.CounterVec
}

// NewOrderMetrics registers the collectors on reg. A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_submissions_total",
			Help: "Order submissions by outcome.",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_delivery_failures_total",
			Help: "Failed order notifications by classification.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "order_submit_duration_seconds",
			Help:    "End to end order submission latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		storageMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "order_store_memory_mode",
			Help: "1 when the order store runs on the in-memory fallback.",
		}),
		wizardSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "channel_wizard_sessions_total",
			Help: "Channel discovery wizard sessions started, by trigger.",
		}, []string{"trigger"}),
	}
	reg.MustRegister(m.submissions, m.failures, m.duration, m.storageMemory, m.wizardSessions)
	return m
}

func (m *OrderMetrics) ObserveSubmission(outcome string, elapsed time.Duration) {
	if m == nil || m.submissions == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.submissions.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *OrderMetrics) IncDeliveryFailure(kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *OrderMetrics) SetMemoryMode(active bool) {
	if m == nil || m.storageMemory == nil {
		return
	}
	if active {
		m.storageMemory.Set(1)
		return
	}
	m.storageMemory.Set(0)
}

func (m *OrderMetrics) IncWizardSession(trigger string) {
	if m == nil || m.wizardSessions == nil {
		return
	}
	m.wizardSessions.WithLabelValues(normalizeLabel(trigger)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

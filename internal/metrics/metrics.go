// Package metrics holds the Prometheus metrics of the receive and send pipelines.
//
// A nil *Metrics is valid and records nothing, so pipelines can run without a registry (CLI, tests).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uftp"

// Receive outcomes
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeReusedID  = "reused_id"
	OutcomeError     = "error"
)

// Send outcomes use the send error kind, or OutcomeSent.
const OutcomeSent = "sent"

// Metrics holds pipeline metrics.
type Metrics struct {
	registry *prometheus.Registry

	received     *prometheus.CounterVec   // by message_type and outcome
	rejections   *prometheus.CounterVec   // by reason
	sent         *prometheus.CounterVec   // by message_type and outcome
	sendDuration *prometheus.HistogramVec // by message_type
	outboxDepth  prometheus.Gauge
}

// New creates the pipeline metrics on a fresh registry that also carries the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receive",
			Name:      "messages_total",
			Help:      "Total number of received messages by outcome",
		}, []string{"message_type", "outcome"}), // outcome: accepted, rejected, duplicate, reused_id, error

		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "rejections_total",
			Help:      "Total number of validation rejections by reason",
		}, []string{"reason"}),

		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "send",
			Name:      "messages_total",
			Help:      "Total number of send attempts by outcome",
		}, []string{"message_type", "outcome"}), // outcome: sent or a send error kind

		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "send",
			Name:      "duration_seconds",
			Help:      "Duration of send attempts including sealing and the HTTP round trip",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"message_type"}),

		outboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "depth",
			Help:      "Number of responses waiting to be sent",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.received,
		m.rejections,
		m.sent,
		m.sendDuration,
		m.outboxDepth,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RecordReceived counts a received message.
func (m *Metrics) RecordReceived(messageType, outcome string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(messageType, outcome).Inc()
}

// RecordRejection counts a validation rejection.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// RecordSent counts a send attempt and its duration.
func (m *Metrics) RecordSent(messageType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(messageType, outcome).Inc()
	m.sendDuration.WithLabelValues(messageType).Observe(duration.Seconds())
}

// SetOutboxDepth records the number of queued responses.
func (m *Metrics) SetOutboxDepth(n int) {
	if m == nil {
		return
	}
	m.outboxDepth.Set(float64(n))
}

// RegisterSealPool exposes the sealing pool usage reported by stats.
func (m *Metrics) RegisterSealPool(stats func() (total, acquired int32)) {
	if m == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "seal_pool",
			Name:      "primitives",
			Help:      "Number of sealing primitives created",
		}, func() float64 {
			total, _ := stats()
			return float64(total)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "seal_pool",
			Name:      "acquired",
			Help:      "Number of sealing primitives in use",
		}, func() float64 {
			_, acquired := stats()
			return float64(acquired)
		}),
	)
}

// Package metrics exposes Prometheus instrumentation for the workflow and the
// event dispatcher. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mtlprog/bitacora/internal/domain"
)

const namespace = "bitacora"

// Metrics holds the service collectors.
type Metrics struct {
	transitionsTotal   *prometheus.CounterVec
	rejectedTotal      *prometheus.CounterVec
	eventsTotal        *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	dispatchDuration   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_request_transitions_total",
				Help:      "Total number of successful task request status transitions",
			},
			[]string{"from", "to"},
		),
		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_request_operations_rejected_total",
				Help:      "Total number of workflow operations refused by a guard",
			},
			[]string{"operation"},
		),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_total",
				Help:      "Total number of dispatched outbox events",
			},
			[]string{"type", "result"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of notifications sent",
			},
			[]string{"subject", "result"},
		),
		dispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_batch_duration_seconds",
				Help:      "Duration of one outbox dispatch batch",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		m.transitionsTotal,
		m.rejectedTotal,
		m.eventsTotal,
		m.notificationsTotal,
		m.dispatchDuration,
	)

	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Transition records a successful status change.
func (m *Metrics) Transition(from, to domain.Status) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
}

// Rejected records an operation refused by a workflow guard.
func (m *Metrics) Rejected(operation string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(operation).Inc()
}

// Event records the outcome of dispatching one outbox event.
func (m *Metrics) Event(eventType domain.EventType, err error) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(eventType), result(err)).Inc()
}

// Notification records the outcome of one notification.
func (m *Metrics) Notification(subject string, err error) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(subject, result(err)).Inc()
}

// DispatchBatch records how long one dispatch batch took.
func (m *Metrics) DispatchBatch(started time.Time) {
	if m == nil {
		return
	}
	m.dispatchDuration.Observe(time.Since(started).Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

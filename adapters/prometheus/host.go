package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/grain-go/core/host"
	"github.com/codewandler/grain-go/core/metrics"
)

// hostMetrics implements host.HostMetrics using Prometheus.
type hostMetrics struct {
	activationsTotal   *prometheus.CounterVec
	deactivationsTotal *prometheus.CounterVec
	activations        prometheus.Gauge
	turnDuration       *prometheus.HistogramVec
	panicsTotal        *prometheus.CounterVec
	remindersFired     *prometheus.CounterVec
}

// NewHostMetrics creates a new Prometheus implementation of HostMetrics.
func NewHostMetrics(reg prometheus.Registerer) host.HostMetrics {
	m := &hostMetrics{
		activationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_host_activations_total",
			Help: "Total number of activation attempts",
		}, []string{"actor_type", "success"}),

		deactivationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_host_deactivations_total",
			Help: "Total number of deactivations",
		}, []string{"actor_type", "reason"}),

		activations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grain_host_activations",
			Help: "Current number of activations",
		}),

		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grain_host_turn_duration_seconds",
			Help:    "Turn duration in seconds, including activation turns",
			Buckets: turnBuckets,
		}, []string{"actor_type"}),

		panicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_host_turn_panics_total",
			Help: "Total number of recovered turn panics",
		}, []string{"actor_type"}),

		remindersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_host_reminders_fired_total",
			Help: "Total number of reminder ticks delivered",
		}, []string{"actor_type"}),
	}

	reg.MustRegister(
		m.activationsTotal,
		m.deactivationsTotal,
		m.activations,
		m.turnDuration,
		m.panicsTotal,
		m.remindersFired,
	)

	return m
}

func (m *hostMetrics) Activated(actorType string, success bool) {
	m.activationsTotal.WithLabelValues(actorType, boolLabel(success)).Inc()
}

func (m *hostMetrics) Deactivated(actorType string, reason string) {
	m.deactivationsTotal.WithLabelValues(actorType, reason).Inc()
}

func (m *hostMetrics) ActiveActivations(count int) {
	m.activations.Set(float64(count))
}

func (m *hostMetrics) TurnDuration(actorType string) metrics.Timer {
	return startTimer(m.turnDuration.WithLabelValues(actorType))
}

func (m *hostMetrics) TurnPanicked(actorType string) {
	m.panicsTotal.WithLabelValues(actorType).Inc()
}

func (m *hostMetrics) ReminderFired(actorType string) {
	m.remindersFired.WithLabelValues(actorType).Inc()
}

var _ host.HostMetrics = (*hostMetrics)(nil)

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/grain-go/core/actor"
	"github.com/codewandler/grain-go/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	receiveDuration  *prometheus.HistogramVec
	messagesTotal    *prometheus.CounterVec
	unhandledTotal   *prometheus.CounterVec
	remindersTotal   *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		receiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grain_actor_receive_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: turnBuckets,
		}, []string{"actor_type"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"actor_type", "success"}),

		unhandledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_actor_unhandled_messages_total",
			Help: "Total number of messages no behavior handled",
		}, []string{"actor_type"}),

		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_actor_reminders_total",
			Help: "Total number of reminders processed",
		}, []string{"actor_type", "success"}),

		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grain_actor_transitions_total",
			Help: "Total number of behavior transitions attempted",
		}, []string{"actor_type", "success"}),
	}

	reg.MustRegister(
		m.receiveDuration,
		m.messagesTotal,
		m.unhandledTotal,
		m.remindersTotal,
		m.transitionsTotal,
	)

	return m
}

func (m *actorMetrics) ReceiveDuration(actorType string) metrics.Timer {
	return startTimer(m.receiveDuration.WithLabelValues(actorType))
}

func (m *actorMetrics) MessageProcessed(actorType string, success bool) {
	m.messagesTotal.WithLabelValues(actorType, boolLabel(success)).Inc()
}

func (m *actorMetrics) MessageUnhandled(actorType string) {
	m.unhandledTotal.WithLabelValues(actorType).Inc()
}

func (m *actorMetrics) ReminderProcessed(actorType string, success bool) {
	m.remindersTotal.WithLabelValues(actorType, boolLabel(success)).Inc()
}

func (m *actorMetrics) TransitionCompleted(actorType string, success bool) {
	m.transitionsTotal.WithLabelValues(actorType, boolLabel(success)).Inc()
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)

package actor

import "github.com/codewandler/grain-go/core/metrics"

// ActorMetrics defines the metrics interface for actor turns.
// All methods are thread-safe.
type ActorMetrics interface {
	ReceiveDuration(actorType string) metrics.Timer
	MessageProcessed(actorType string, success bool)
	MessageUnhandled(actorType string)
	ReminderProcessed(actorType string, success bool)
	TransitionCompleted(actorType string, success bool)
}

// nopActorMetrics is a no-op implementation of ActorMetrics.
type nopActorMetrics struct{}

func (nopActorMetrics) ReceiveDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) MessageProcessed(string, bool)        {}
func (nopActorMetrics) MessageUnhandled(string)              {}
func (nopActorMetrics) ReminderProcessed(string, bool)       {}
func (nopActorMetrics) TransitionCompleted(string, bool)     {}

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }

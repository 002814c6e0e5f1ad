package host

import "github.com/codewandler/grain-go/core/metrics"

// HostMetrics defines the metrics interface for a Silo.
// All methods are thread-safe.
type HostMetrics interface {
	Activated(actorType string, success bool)
	Deactivated(actorType string, reason string)
	ActiveActivations(count int)

	TurnDuration(actorType string) metrics.Timer
	TurnPanicked(actorType string)

	ReminderFired(actorType string)
}

// Deactivation reasons reported to HostMetrics.
const (
	ReasonIdle      = "idle"
	ReasonRequested = "requested"
	ReasonStopped   = "stopped"
)

type nopHostMetrics struct{}

func (nopHostMetrics) Activated(string, bool)            {}
func (nopHostMetrics) Deactivated(string, string)        {}
func (nopHostMetrics) ActiveActivations(int)             {}
func (nopHostMetrics) TurnDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopHostMetrics) TurnPanicked(string)               {}
func (nopHostMetrics) ReminderFired(string)              {}

// NopHostMetrics returns a no-op HostMetrics implementation.
func NopHostMetrics() HostMetrics { return nopHostMetrics{} }

// Package prometheus exports the metrics of the actor core and the silo
// host to Prometheus.
//
// Two families are registered, both under the "grain_" prefix:
//
//   - grain_actor_*: per actor type receive latency, processed and
//     unhandled messages, reminders and behavior transitions.
//   - grain_host_*: activations and deactivations by reason, the live
//     activation gauge, turn latency, recovered panics and reminder ticks.
//
// All series are labelled by actor type code, never by actor id.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/grain-go/core/actor"
	"github.com/codewandler/grain-go/core/host"
	"github.com/codewandler/grain-go/core/metrics"
)

// histogramTimer observes the time since it was started into a latency
// histogram; one is created per receive or turn.
type histogramTimer struct {
	h     prometheus.Observer
	start time.Time
}

func startTimer(h prometheus.Observer) metrics.Timer {
	return &histogramTimer{h: h, start: time.Now()}
}

func (t *histogramTimer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// turnBuckets span an in-memory turn (tens of microseconds) up to a turn
// that awaits an async handler for seconds.
var turnBuckets = []float64{
	.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5,
}

// AllMetrics is both families registered on one registry:
//
//	m := prometheus.NewAllMetrics(reg)
//	bulbs := actor.MustDefine(types, newBulb, actor.Options{Metrics: m.Actor})
//	silo := host.New(host.Options{Metrics: m.Host})
type AllMetrics struct {
	Actor actor.ActorMetrics
	Host  host.HostMetrics
}

func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Actor: NewActorMetrics(reg),
		Host:  NewHostMetrics(reg),
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Package metrics provides the abstract instrumentation types used by the
// actor core and the host, so that core packages do not depend on a
// specific backend. See adapters/prometheus for an implementation.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when
// the operation completes to record the elapsed time:
//
//	defer m.ReceiveDuration("lightbulb").ObserveDuration()
type Timer interface {
	ObserveDuration()
}

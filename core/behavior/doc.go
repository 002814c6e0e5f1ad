// Package behavior implements the per-actor behavior state machine: a set
// of named handler bundles of which exactly one is current, and the Become
// protocol that swaps them.
//
// A new [Machine] starts in the null behavior, which handles nothing.
// Behaviors are registered by name and selected with [Machine.Initial]
// (once, without hooks) or [Machine.Become]:
//
//	m := behavior.New(behavior.WithObserver(obs))
//	_ = m.Register(behavior.Behavior{Name: "idle", OnReceive: echo})
//	_ = m.Register(behavior.Behavior{Name: "busy", OnReceive: m.Unhandled})
//	_ = m.Initial("idle")
//	_ = m.Become(ctx, "busy")
//
// # Transitions
//
// Become runs [Observer.OnTransitioning] before the swap and
// [Observer.OnTransitioned] after it. A failing pre-hook aborts the
// transition, reports it to [Observer.OnTransitionFailure] and leaves the
// current behavior in place. A failing post-hook is returned to the caller
// but the new behavior stays current. Become called while a transition is
// running fails with [InvalidTransitionError].
//
// # Hierarchy
//
// A behavior may name a Super behavior. Lifecycle events the behavior has
// no handler for, and messages or reminders its handler rejects with
// [Machine.Unhandled] or [Machine.UnhandledReminder], are passed up the
// Super chain. What the whole chain rejects goes to the unhandled policy.
// Unhandled errors raised elsewhere, such as by another actor a handler
// called, are returned like any other error.
//
// A Machine is not safe for concurrent use. The host runs at most one turn
// per actor at a time, and that is the only synchronization it relies on.
package behavior

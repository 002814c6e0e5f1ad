// Package actor is the per-instance core that sits between a host and
// application code: identity, lifecycle entry points, behavior switching
// and polymorphic dispatch.
//
// # Defining Actor Types
//
// An actor type is a Go type embedding *[Actor], registered once at
// startup together with its message handlers:
//
//	type Lightbulb struct {
//	    *actor.Actor
//	    on bool
//	}
//
//	func (*Lightbulb) TypeCode() string { return "lightbulb" }
//
//	func (l *Lightbulb) DefineBehaviors() []behavior.Behavior {
//	    return []behavior.Behavior{
//	        {Name: "off", OnReceive: l.receiveOff},
//	        {Name: "on", OnReceive: l.receiveOn},
//	    }
//	}
//
//	bulbs, err := actor.Define(reg,
//	    func(a *actor.Actor) *Lightbulb { return &Lightbulb{Actor: a} },
//	    actor.Options{InitialBehavior: "off"},
//	    dispatch.Handle(func(ctx context.Context, l *Lightbulb, m Toggle) (any, error) { ... }),
//	)
//
// # Lifecycle
//
// The host constructs an instance through [Kind.New], then calls
// [Actor.Activate] once, any number of [Actor.Receive] and
// [Actor.ReceiveReminder] calls, and [Actor.Deactivate] once. All of them
// are routed through the current behavior. The host must never run two of
// them concurrently for the same instance.
//
// # Hooks
//
// Types embedding *Actor inherit no-op transition hooks and the default
// unhandled policies. Declaring OnTransitioning, OnTransitioned,
// OnTransitionFailure, OnUnhandledReceive or OnUnhandledReminder on the
// outer type replaces the inherited one.
package actor

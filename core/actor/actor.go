package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codewandler/grain-go/core/behavior"
	"github.com/codewandler/grain-go/core/dispatch"
)

// StickyReminderName is the reminder sticky actors register to stay
// active. It is consumed by ReceiveReminder and never reaches behaviors.
const StickyReminderName = "##sticky##"

// Actor is the core of one actor instance. Application types embed it.
//
// None of its state is synchronized: the host guarantees that at most one
// turn runs per instance.
type Actor struct {
	id      Identity
	rt      Runtime
	log     *slog.Logger
	opts    Options
	metrics ActorMetrics

	machine  *behavior.Machine
	dispatch func(ctx context.Context, msg any, fallback dispatch.Fallback) (any, error)
	self     any

	observer          behavior.Observer
	unhandled         UnhandledReceiver
	unhandledReminder UnhandledReminderReceiver
}

func (a *Actor) Identity() Identity { return a.id }

func (a *Actor) ID() string { return a.id.ID }

func (a *Actor) String() string { return a.id.String() }

func (a *Actor) Runtime() Runtime { return a.rt }

func (a *Actor) Log() *slog.Logger { return a.log }

// Self returns the application value wrapping this core.
func (a *Actor) Self() any { return a.self }

// Behavior returns the current behavior.
func (a *Actor) Behavior() *behavior.Behavior { return a.machine.Current() }

// Become switches to the named behavior. See behavior.Machine.Become.
func (a *Actor) Become(ctx context.Context, name string) error {
	err := a.machine.Become(ctx, name)
	a.metrics.TransitionCompleted(a.id.Type, err == nil)
	return err
}

// Dispatch routes msg to the handler registered for its type on this
// actor's type. Without a match fallback is called; a nil fallback rejects
// msg as Unhandled does.
func (a *Actor) Dispatch(ctx context.Context, msg any, fallback dispatch.Fallback) (any, error) {
	if fallback == nil {
		fallback = a.machine.Unhandled
	}
	return a.dispatch(ctx, msg, fallback)
}

// Unhandled rejects msg from the current behavior. It moves on to the
// super behavior, and past the end of the chain to OnUnhandledReceive.
func (a *Actor) Unhandled(ctx context.Context, msg any) (any, error) {
	return a.machine.Unhandled(ctx, msg)
}

// UnhandledReminder rejects reminder id the way Unhandled rejects messages.
func (a *Actor) UnhandledReminder(ctx context.Context, id string) error {
	return a.machine.UnhandledReminder(ctx, id)
}

// ---- host entry points ----

// Activate runs once before the first message.
func (a *Actor) Activate(ctx context.Context) error {
	ctx = WithTurn(ctx, a.id)
	if a.opts.Sticky {
		period := a.opts.StickyPeriod
		if err := a.rt.Reminders().Register(ctx, StickyReminderName, period, period); err != nil {
			return fmt.Errorf("register sticky reminder: %w", err)
		}
	}
	return a.machine.Activate(ctx)
}

// Deactivate runs once at teardown.
func (a *Actor) Deactivate(ctx context.Context) error {
	return a.machine.Deactivate(WithTurn(ctx, a.id))
}

// Receive handles one inbound message through the current behavior.
func (a *Actor) Receive(ctx context.Context, msg any) (any, error) {
	a.KeepAlive()
	defer a.metrics.ReceiveDuration(a.id.Type).ObserveDuration()

	res, err := a.machine.Receive(WithTurn(ctx, a.id), msg)
	if errors.Is(err, dispatch.ErrUnhandledMessage) {
		a.metrics.MessageUnhandled(a.id.Type)
	}
	a.metrics.MessageProcessed(a.id.Type, err == nil)
	return res, err
}

// Notify is Receive for one-way messages.
func (a *Actor) Notify(ctx context.Context, msg any) error {
	_, err := a.Receive(ctx, msg)
	return err
}

// ReceiveReminder handles a reminder through the current behavior.
func (a *Actor) ReceiveReminder(ctx context.Context, name string) error {
	a.KeepAlive()
	if name == StickyReminderName {
		return nil
	}
	err := a.machine.Reminder(WithTurn(ctx, a.id), name)
	a.metrics.ReminderProcessed(a.id.Type, err == nil)
	return err
}

// Autorun acknowledges a keep-alive request from the host.
func (a *Actor) Autorun(context.Context) error {
	a.KeepAlive()
	return nil
}

// KeepAlive extends the activation by Options.KeepAlive. Safe to call any
// number of times.
func (a *Actor) KeepAlive() {
	if a.opts.KeepAlive > 0 {
		a.rt.DelayDeactivation(a.opts.KeepAlive)
	}
}

// ---- overridable defaults ----

func (a *Actor) OnTransitioning(context.Context, behavior.Transition) error { return nil }

func (a *Actor) OnTransitioned(context.Context, behavior.Transition) error { return nil }

func (a *Actor) OnTransitionFailure(ctx context.Context, t behavior.Transition, err error) {
	a.log.WarnContext(ctx, "behavior transition failed", slog.String("transition", t.String()), slog.Any("error", err))
}

func (a *Actor) OnUnhandledReceive(_ context.Context, msg any) (any, error) {
	return nil, &dispatch.UnhandledMessageError{Actor: a.id, Message: msg}
}

func (a *Actor) OnUnhandledReminder(_ context.Context, id string) error {
	return &behavior.UnhandledReminderError{Actor: a.id, Reminder: id}
}

// actorObserver forwards to the observer resolved after construction.
type actorObserver struct{ a *Actor }

func (o actorObserver) OnTransitioning(ctx context.Context, t behavior.Transition) error {
	return o.a.observer.OnTransitioning(ctx, t)
}

func (o actorObserver) OnTransitioned(ctx context.Context, t behavior.Transition) error {
	return o.a.observer.OnTransitioned(ctx, t)
}

func (o actorObserver) OnTransitionFailure(ctx context.Context, t behavior.Transition, err error) {
	o.a.observer.OnTransitionFailure(ctx, t, err)
}

// DispatchAs dispatches msg on a and converts the result to R.
func DispatchAs[R any](ctx context.Context, a *Actor, msg any, fallback dispatch.Fallback) (out R, err error) {
	res, err := a.Dispatch(ctx, msg, fallback)
	if err != nil || res == nil {
		return out, err
	}
	out, ok := res.(R)
	if !ok {
		return out, fmt.Errorf("dispatch result %T is not %T", res, out)
	}
	return out, nil
}

var (
	_ behavior.Observer         = (*Actor)(nil)
	_ UnhandledReceiver         = (*Actor)(nil)
	_ UnhandledReminderReceiver = (*Actor)(nil)
)

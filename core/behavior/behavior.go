package behavior

import "context"

// NullName is the name of the behavior every machine starts in.
const NullName = "null"

type (
	LifecycleFunc func(ctx context.Context) error
	ReceiveFunc   func(ctx context.Context, msg any) (any, error)
	ReminderFunc  func(ctx context.Context, id string) error

	// Behavior is one named state of an actor. Nil handlers defer to the
	// Super behavior.
	Behavior struct {
		Name  string
		Super string

		OnActivate   LifecycleFunc
		OnDeactivate LifecycleFunc
		OnReceive    ReceiveFunc
		OnReminder   ReminderFunc
	}

	// Transition describes one Become attempt.
	Transition struct {
		From *Behavior
		To   *Behavior
	}

	// Observer is notified around every Become.
	Observer interface {
		OnTransitioning(ctx context.Context, t Transition) error
		OnTransitioned(ctx context.Context, t Transition) error
		OnTransitionFailure(ctx context.Context, t Transition, err error)
	}
)

var null = &Behavior{Name: NullName}

// IsNull reports whether b is the initial null behavior.
func (b *Behavior) IsNull() bool { return b == null }

func (b *Behavior) String() string {
	if b == nil {
		return "<nil>"
	}
	return b.Name
}

func (t Transition) String() string {
	return t.From.String() + " -> " + t.To.String()
}

// Hooks is an Observer built from optional functions.
type Hooks struct {
	Transitioning func(ctx context.Context, t Transition) error
	Transitioned  func(ctx context.Context, t Transition) error
	Failure       func(ctx context.Context, t Transition, err error)
}

func (h Hooks) OnTransitioning(ctx context.Context, t Transition) error {
	if h.Transitioning == nil {
		return nil
	}
	return h.Transitioning(ctx, t)
}

func (h Hooks) OnTransitioned(ctx context.Context, t Transition) error {
	if h.Transitioned == nil {
		return nil
	}
	return h.Transitioned(ctx, t)
}

func (h Hooks) OnTransitionFailure(ctx context.Context, t Transition, err error) {
	if h.Failure != nil {
		h.Failure(ctx, t, err)
	}
}

var _ Observer = Hooks{}

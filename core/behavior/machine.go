package behavior

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sort"

	"github.com/codewandler/grain-go/core/dispatch"
)

// Option configures a Machine.
type Option func(*Machine)

// WithObserver sets the transition observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithOwner sets the value reported as Actor in unhandled errors,
// typically the actor's identity.
func WithOwner(owner any) Option {
	return func(m *Machine) { m.owner = owner }
}

func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithUnhandledReceive replaces the default unhandled-message policy.
func WithUnhandledReceive(f ReceiveFunc) Option {
	return func(m *Machine) {
		if f != nil {
			m.unhandledReceive = f
		}
	}
}

// WithUnhandledReminder replaces the default unhandled-reminder policy.
func WithUnhandledReminder(f ReminderFunc) Option {
	return func(m *Machine) {
		if f != nil {
			m.unhandledReminder = f
		}
	}
}

// Machine holds the behaviors of one actor instance and its current one.
type Machine struct {
	behaviors     map[string]*Behavior
	current       *Behavior
	transitioning bool

	observer          Observer
	owner             any
	log               *slog.Logger
	unhandledReceive  ReceiveFunc
	unhandledReminder ReminderFunc
}

// New returns a machine in the null behavior.
func New(opts ...Option) *Machine {
	m := &Machine{
		behaviors: make(map[string]*Behavior),
		current:   null,
		observer:  Hooks{},
		log:       slog.Default(),
	}
	m.unhandledReceive = func(_ context.Context, msg any) (any, error) {
		return nil, &dispatch.UnhandledMessageError{Actor: m.owner, Message: msg}
	}
	m.unhandledReminder = func(_ context.Context, id string) error {
		return &UnhandledReminderError{Actor: m.owner, Reminder: id}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a behavior. Names are unique and a Super must already be
// registered.
func (m *Machine) Register(b Behavior) error {
	switch {
	case b.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidBehavior)
	case b.Name == NullName:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidBehavior, NullName)
	case b.Super == b.Name:
		return fmt.Errorf("%w: %q cannot be its own super", ErrInvalidBehavior, b.Name)
	}
	if _, ok := m.behaviors[b.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBehavior, b.Name)
	}
	if b.Super != "" {
		if _, ok := m.behaviors[b.Super]; !ok {
			return fmt.Errorf("%w: super %q of %q is not registered", ErrInvalidBehavior, b.Super, b.Name)
		}
	}

	m.behaviors[b.Name] = &b
	return nil
}

// Initial selects the first behavior without running transition hooks. It
// is only valid while the machine is still in the null behavior.
func (m *Machine) Initial(name string) error {
	if !m.current.IsNull() {
		return &InvalidTransitionError{From: m.current.Name, To: name, Reason: "initial behavior already set"}
	}
	b, ok := m.behaviors[name]
	if !ok {
		return &InvalidTransitionError{From: m.current.Name, To: name, Reason: "unknown behavior"}
	}
	m.current = b
	return nil
}

// Become transitions to the named behavior.
func (m *Machine) Become(ctx context.Context, name string) error {
	if m.transitioning {
		return &InvalidTransitionError{From: m.current.Name, To: name, Reason: "transition already in progress"}
	}
	next, ok := m.behaviors[name]
	if !ok {
		return &InvalidTransitionError{From: m.current.Name, To: name, Reason: "unknown behavior"}
	}

	t := Transition{From: m.current, To: next}

	m.transitioning = true
	defer func() { m.transitioning = false }()

	if err := m.observer.OnTransitioning(ctx, t); err != nil {
		m.log.Debug("behavior transition aborted", slog.String("transition", t.String()), slog.Any("error", err))
		m.observer.OnTransitionFailure(ctx, t, err)
		return err
	}

	m.current = next

	if err := m.observer.OnTransitioned(ctx, t); err != nil {
		m.log.Debug("behavior post-transition hook failed", slog.String("transition", t.String()), slog.Any("error", err))
		return err
	}

	m.log.Debug("behavior transition", slog.String("transition", t.String()))
	return nil
}

// Current returns the current behavior.
func (m *Machine) Current() *Behavior { return m.current }

// Is reports whether the named behavior is current.
func (m *Machine) Is(name string) bool { return m.current.Name == name }

// Transitioning reports whether a Become is running.
func (m *Machine) Transitioning() bool { return m.transitioning }

// Behaviors returns the registered behavior names in sorted order.
func (m *Machine) Behaviors() []string {
	names := make([]string, 0, len(m.behaviors))
	for n := range m.behaviors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *Machine) Activate(ctx context.Context) error {
	for b := range m.chain() {
		if b.OnActivate != nil {
			return b.OnActivate(ctx)
		}
	}
	return nil
}

func (m *Machine) Deactivate(ctx context.Context) error {
	for b := range m.chain() {
		if b.OnDeactivate != nil {
			return b.OnDeactivate(ctx)
		}
	}
	return nil
}

// Receive routes msg to the current behavior. A behavior that rejects msg
// with Unhandled passes it on to its super behavior; when the whole chain
// rejects it the unhandled-message policy decides. Any other result,
// errors included, is returned as is.
func (m *Machine) Receive(ctx context.Context, msg any) (any, error) {
	for b := range m.chain() {
		if b.OnReceive == nil {
			continue
		}
		res, err := b.OnReceive(ctx, msg)
		if m.rejected(err) {
			continue
		}
		return res, err
	}
	res, err := m.unhandledReceive(ctx, msg)
	return res, m.settle(err)
}

// Reminder routes a reminder to the current behavior, falling through to
// super behaviors the same way Receive does.
func (m *Machine) Reminder(ctx context.Context, id string) error {
	for b := range m.chain() {
		if b.OnReminder == nil {
			continue
		}
		err := b.OnReminder(ctx, id)
		if m.rejected(err) {
			continue
		}
		return err
	}
	return m.settle(m.unhandledReminder(ctx, id))
}

// Unhandled rejects msg. Behaviors return it from their receive handler
// to pass msg on to the super behavior, or to the unhandled-message
// policy at the end of the chain.
func (m *Machine) Unhandled(_ context.Context, msg any) (any, error) {
	return nil, &rejection{
		error: &dispatch.UnhandledMessageError{Actor: m.owner, Message: msg},
		m:     m,
	}
}

// UnhandledReminder is Unhandled for reminders.
func (m *Machine) UnhandledReminder(_ context.Context, id string) error {
	return &rejection{
		error: &UnhandledReminderError{Actor: m.owner, Reminder: id},
		m:     m,
	}
}

// rejection is an unhandled result raised by Unhandled or
// UnhandledReminder of machine m. Only these fall through to the super
// behavior; unhandled errors from anywhere else are ordinary failures.
type rejection struct {
	error
	m *Machine
}

func (r *rejection) Unwrap() error { return r.error }

func (m *Machine) rejected(err error) bool {
	var r *rejection
	return errors.As(err, &r) && r.m == m
}

// settle unwraps a rejection a policy returned so it does not leave Receive.
func (m *Machine) settle(err error) error {
	if r, ok := err.(*rejection); ok && r.m == m {
		return r.error
	}
	return err
}

// chain yields the current behavior followed by its super behaviors.
func (m *Machine) chain() iter.Seq[*Behavior] {
	return func(yield func(*Behavior) bool) {
		for b := m.current; b != nil; b = m.behaviors[b.Super] {
			if !yield(b) {
				return
			}
		}
	}
}

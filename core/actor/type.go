package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/grain-go/core/behavior"
	"github.com/codewandler/grain-go/core/dispatch"
	"github.com/codewandler/grain-go/core/typecode"
)

// DefaultStickyPeriod is the interval of the keep-alive reminder of sticky
// actor types.
const DefaultStickyPeriod = time.Minute

var ErrInvalidType = errors.New("invalid actor type")

type (
	// Options configures an actor type.
	Options struct {
		// InitialBehavior is selected at construction. Empty leaves
		// instances in the null behavior until they Become.
		InitialBehavior string
		// KeepAlive extends the activation by this duration on every
		// inbound call. Zero leaves idle collection to the host.
		KeepAlive time.Duration
		// Sticky instances register a keep-alive reminder on activation.
		Sticky       bool
		StickyPeriod time.Duration
		Metrics      ActorMetrics
	}

	// Kind is an actor type as seen by a host.
	Kind interface {
		// Code is the registered type code, used as Identity.Type.
		Code() string
		Sticky() bool
		// New constructs an instance in the null or initial behavior.
		// An empty id is replaced by a generated one.
		New(id string, rt Runtime, log *slog.Logger) (*Actor, error)
	}

	// BehaviorProvider is implemented by actor types that declare their
	// behaviors. It is called once per instance at construction.
	BehaviorProvider interface {
		DefineBehaviors() []behavior.Behavior
	}

	UnhandledReceiver interface {
		OnUnhandledReceive(ctx context.Context, msg any) (any, error)
	}

	UnhandledReminderReceiver interface {
		OnUnhandledReminder(ctx context.Context, id string) error
	}
)

// Type is the definition of actor type A: its code, handler table and
// options. It is created once at startup and shared by all instances.
type Type[A any] struct {
	code       string
	newFn      func(*Actor) A
	dispatcher *dispatch.Dispatcher[A]
	opts       Options
}

// Define registers A in reg and builds its dispatcher. Any error is a
// configuration error and the process should not start.
func Define[A any](
	reg *typecode.Registry,
	newFn func(*Actor) A,
	opts Options,
	handlers ...dispatch.Registration[A],
) (*Type[A], error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidType)
	}
	if newFn == nil {
		return nil, fmt.Errorf("%w: constructor is required", ErrInvalidType)
	}

	code := typecode.CodeFor[A]()
	if strings.Contains(code, identitySeparator) {
		return nil, fmt.Errorf("%w: type code %q must not contain %q", ErrInvalidType, code, identitySeparator)
	}

	d, err := dispatch.New[A](handlers...)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", code, err)
	}

	if err := typecode.RegisterType[A](reg); err != nil {
		return nil, fmt.Errorf("define %s: %w", code, err)
	}

	if opts.Sticky && opts.StickyPeriod <= 0 {
		opts.StickyPeriod = DefaultStickyPeriod
	}
	if opts.Metrics == nil {
		opts.Metrics = NopActorMetrics()
	}

	return &Type[A]{
		code:       code,
		newFn:      newFn,
		dispatcher: d,
		opts:       opts,
	}, nil
}

// MustDefine is like Define but panics on error.
func MustDefine[A any](
	reg *typecode.Registry,
	newFn func(*Actor) A,
	opts Options,
	handlers ...dispatch.Registration[A],
) *Type[A] {
	t, err := Define(reg, newFn, opts, handlers...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Type[A]) Code() string { return t.code }

func (t *Type[A]) Sticky() bool { return t.opts.Sticky }

// Dispatcher returns the handler table shared by all instances.
func (t *Type[A]) Dispatcher() *dispatch.Dispatcher[A] { return t.dispatcher }

func (t *Type[A]) New(id string, rt Runtime, log *slog.Logger) (*Actor, error) {
	_, a, err := t.Spawn(id, rt, log)
	return a, err
}

// Spawn constructs an instance and returns both the application value and
// its core. A nil rt or log fall back to NopRuntime and slog.Default.
func (t *Type[A]) Spawn(id string, rt Runtime, log *slog.Logger) (app A, a *Actor, err error) {
	if id == "" {
		id = gonanoid.Must()
	}
	if rt == nil {
		rt = NopRuntime()
	}
	if log == nil {
		log = slog.Default()
	}

	ident := Identity{Type: t.code, ID: id}
	a = &Actor{
		id:      ident,
		rt:      rt,
		log:     log.With(slog.String("actor", ident.String())),
		opts:    t.opts,
		metrics: t.opts.Metrics,
	}
	a.observer = a
	a.unhandled = a
	a.unhandledReminder = a

	a.machine = behavior.New(
		behavior.WithOwner(ident),
		behavior.WithLogger(a.log),
		behavior.WithObserver(actorObserver{a}),
		behavior.WithUnhandledReceive(func(ctx context.Context, msg any) (any, error) {
			return a.unhandled.OnUnhandledReceive(ctx, msg)
		}),
		behavior.WithUnhandledReminder(func(ctx context.Context, id string) error {
			return a.unhandledReminder.OnUnhandledReminder(ctx, id)
		}),
	)

	app = t.newFn(a)
	a.self = app
	a.dispatch = func(ctx context.Context, msg any, fallback dispatch.Fallback) (any, error) {
		return t.dispatcher.Dispatch(ctx, app, msg, fallback)
	}

	if o, ok := any(app).(behavior.Observer); ok {
		a.observer = o
	}
	if u, ok := any(app).(UnhandledReceiver); ok {
		a.unhandled = u
	}
	if u, ok := any(app).(UnhandledReminderReceiver); ok {
		a.unhandledReminder = u
	}

	if p, ok := any(app).(BehaviorProvider); ok {
		for _, b := range p.DefineBehaviors() {
			if err = a.machine.Register(b); err != nil {
				return app, nil, fmt.Errorf("construct %s: %w", ident, err)
			}
		}
	}
	if t.opts.InitialBehavior != "" {
		if err = a.machine.Initial(t.opts.InitialBehavior); err != nil {
			return app, nil, fmt.Errorf("construct %s: %w", ident, err)
		}
	}

	return app, a, nil
}

var _ Kind = (*Type[any])(nil)

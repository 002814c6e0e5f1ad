package host

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codewandler/grain-go/core/actor"
	"github.com/codewandler/grain-go/core/perkey"
	"github.com/codewandler/grain-go/core/sf"
)

type Options struct {
	Logger  *slog.Logger
	Metrics HostMetrics
	Config  Config
}

// Silo hosts actor activations in the current process.
type Silo struct {
	log     *slog.Logger
	metrics HostMetrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	turns      *perkey.Scheduler[actor.Identity]
	activating sf.Group[*activation]

	mu          sync.Mutex
	cfg         Config
	kinds       map[string]actor.Kind
	activations map[actor.Identity]*activation
	started     bool
	stopped     bool
}

func New(opts Options) *Silo {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopHostMetrics()
	}
	cfg := opts.Config.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Silo{
		log:         opts.Logger,
		metrics:     opts.Metrics,
		ctx:         ctx,
		cancel:      cancel,
		turns:       perkey.New[actor.Identity](perkey.WithBufferSize(cfg.MailboxSize)),
		cfg:         cfg,
		kinds:       make(map[string]actor.Kind),
		activations: make(map[actor.Identity]*activation),
	}
}

// Register makes an actor type available for activation.
func (s *Silo) Register(kind actor.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kinds[kind.Code()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind.Code())
	}
	s.kinds[kind.Code()] = kind
	s.log.Debug("actor type registered", slog.String("type", kind.Code()), slog.Bool("sticky", kind.Sticky()))
	return nil
}

// Config returns the current configuration.
func (s *Silo) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig replaces the timing configuration. MailboxSize only
// applies to a new Silo.
func (s *Silo) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg = cfg.withDefaults()
	cfg.MailboxSize = s.cfg.MailboxSize
	s.cfg = cfg
	s.log.Info("config updated",
		slog.Duration("idle_timeout", cfg.IdleTimeout),
		slog.Duration("collect_interval", cfg.CollectInterval),
	)
	return nil
}

// Ask delivers msg to id and returns the handler's result. The actor is
// activated first if needed.
func (s *Silo) Ask(ctx context.Context, id actor.Identity, msg any) (any, error) {
	out := make(chan any, 1)
	err := s.do(ctx, id, func(ctx context.Context, a *activation) error {
		res, err := a.act.Receive(ctx, msg)
		out <- res
		return err
	})
	if err != nil {
		return nil, err
	}
	return <-out, nil
}

// Tell enqueues msg for id and returns without waiting for the turn.
// Messages told by one goroutine to one identity are handled in order.
// Handler errors are logged.
func (s *Silo) Tell(ctx context.Context, id actor.Identity, msg any) error {
	kind, err := s.check(ctx, id)
	if err != nil {
		return err
	}
	err = s.turns.Submit(ctx, id, func() error {
		err := s.turn(s.ctx, id, kind, func(ctx context.Context, a *activation) error {
			return a.act.Notify(ctx, msg)
		})
		if err != nil && !errors.Is(err, ErrStopped) {
			s.log.Warn("tell failed",
				slog.String("actor", id.String()),
				slog.String("msg", fmt.Sprintf("%T", msg)),
				slog.Any("error", err),
			)
		}
		return err
	})
	return s.schedulerErr(err)
}

// Remind delivers the reminder name to id as if it had fired.
func (s *Silo) Remind(ctx context.Context, id actor.Identity, name string) error {
	return s.do(ctx, id, func(ctx context.Context, a *activation) error {
		return a.act.ReceiveReminder(ctx, name)
	})
}

// Activate makes sure id is active. Concurrent calls for one identity
// share a single turn.
func (s *Silo) Activate(ctx context.Context, id actor.Identity) error {
	kind, err := s.check(ctx, id)
	if err != nil {
		return err
	}
	_, _, err = s.activating.Do(id.String(), func() (*activation, error) {
		err := s.turns.DoContext(ctx, id, func() error {
			return s.turn(ctx, id, kind, func(ctx context.Context, a *activation) error {
				return a.act.Autorun(ctx)
			})
		})
		if err != nil {
			return nil, s.schedulerErr(err)
		}
		return s.lookup(id), nil
	})
	return err
}

// Deactivate deactivates id if it is active.
func (s *Silo) Deactivate(ctx context.Context, id actor.Identity) error {
	if _, err := s.check(ctx, id); err != nil {
		return err
	}
	err := s.turns.DoContext(ctx, id, func() error {
		a := s.lookup(id)
		if a == nil {
			return nil
		}
		return s.deactivate(ctx, a, ReasonRequested)
	})
	return s.schedulerErr(err)
}

// Active returns the identities of all activations, sorted.
func (s *Silo) Active() []actor.Identity {
	s.mu.Lock()
	ids := make([]actor.Identity, 0, len(s.activations))
	for id := range s.activations {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	slices.SortFunc(ids, func(a, b actor.Identity) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.ID, b.ID))
	})
	return ids
}

// Start runs the idle collector until ctx ends or the Silo stops.
func (s *Silo) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ctx.Done():
				return
			case <-time.After(s.Config().CollectInterval):
			}
			if n := s.CollectIdle(ctx); n > 0 {
				s.log.Debug("collected idle activations", slog.Int("count", n))
			}
		}
	}()

	s.log.Info("silo started")
}

// CollectIdle deactivates every activation whose idle deadline passed and
// returns how many were deactivated. Sticky actor types are never
// collected.
func (s *Silo) CollectIdle(ctx context.Context) int {
	if s.Config().IdleTimeout < 0 {
		return 0
	}

	now := time.Now()
	var idle []*activation
	s.mu.Lock()
	for _, a := range s.activations {
		if a.idle(now) {
			idle = append(idle, a)
		}
	}
	s.mu.Unlock()

	n := 0
	for _, a := range idle {
		var collected atomic.Bool
		err := s.turns.DoContext(ctx, a.id, func() error {
			// a call may have arrived since the snapshot
			if !s.isCurrent(a) || !a.idle(time.Now()) {
				return nil
			}
			collected.Store(true)
			return s.deactivate(ctx, a, ReasonIdle)
		})
		if err != nil {
			s.log.Warn("idle deactivation failed", slog.String("actor", a.id.String()), slog.Any("error", err))
		}
		if collected.Load() {
			n++
		}
	}
	return n
}

// Stop deactivates all activations and rejects further calls.
func (s *Silo) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	active := make([]*activation, 0, len(s.activations))
	for _, a := range s.activations {
		active = append(active, a)
	}
	s.mu.Unlock()

	s.log.Info("silo stopping", slog.Int("activations", len(active)))

	// reminders and the collector end with the silo context
	s.cancel()

	var errs []error
	for _, a := range active {
		err := s.turns.DoContext(ctx, a.id, func() error {
			if !s.isCurrent(a) {
				return nil
			}
			return s.deactivate(ctx, a, ReasonStopped)
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	s.turns.Close()
	s.wg.Wait()

	s.log.Info("silo stopped")
	return errors.Join(errs...)
}

// do runs fn as a turn of id and waits for it.
func (s *Silo) do(ctx context.Context, id actor.Identity, fn func(context.Context, *activation) error) error {
	kind, err := s.check(ctx, id)
	if err != nil {
		return err
	}
	err = s.turns.DoContext(ctx, id, func() error {
		return s.turn(ctx, id, kind, fn)
	})
	return s.schedulerErr(err)
}

// check validates a call before it is scheduled.
func (s *Silo) check(ctx context.Context, id actor.Identity) (actor.Kind, error) {
	if cur, ok := actor.TurnOf(ctx); ok && cur == id {
		return nil, fmt.Errorf("%w: %s", ErrSelfRequest, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrStopped
	}
	kind, ok := s.kinds[id.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActorType, id.Type)
	}
	return kind, nil
}

func (s *Silo) schedulerErr(err error) error {
	if errors.Is(err, perkey.ErrSchedulerClosed) {
		return ErrStopped
	}
	return err
}

// turn runs inside the scheduler lane of id: it activates the actor if
// needed, runs fn and honors DeactivateOnIdle afterwards.
func (s *Silo) turn(ctx context.Context, id actor.Identity, kind actor.Kind, fn func(context.Context, *activation) error) error {
	a, err := s.ensureActive(ctx, id, kind)
	if err != nil {
		return err
	}

	err = s.runTurn(ctx, a, func(ctx context.Context) error {
		return fn(ctx, a)
	})

	if a.takeDeactivate() && s.isCurrent(a) {
		if derr := s.deactivate(ctx, a, ReasonRequested); derr != nil {
			s.log.Warn("deactivate on idle failed", slog.String("actor", id.String()), slog.Any("error", derr))
		}
	}
	return err
}

// runTurn calls fn, converting a panic into ErrTurnPanicked.
func (s *Silo) runTurn(ctx context.Context, a *activation, fn func(context.Context) error) (err error) {
	defer s.metrics.TurnDuration(a.id.Type).ObserveDuration()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.TurnPanicked(a.id.Type)
			s.log.Error("actor panicked",
				slog.String("actor", a.id.String()),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %s: %v", ErrTurnPanicked, a.id, r)
		}
	}()

	a.touch(s.Config().IdleTimeout)
	return fn(ctx)
}

// ensureActive returns the activation of id, creating and activating it
// first if needed. It must run inside the lane of id.
func (s *Silo) ensureActive(ctx context.Context, id actor.Identity, kind actor.Kind) (*activation, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrStopped
	}
	if a, ok := s.activations[id]; ok {
		s.mu.Unlock()
		return a, nil
	}
	s.mu.Unlock()

	a := newActivation(s, id, kind)
	act, err := kind.New(id.ID, a, s.log)
	if err != nil {
		s.metrics.Activated(id.Type, false)
		return nil, fmt.Errorf("create %s: %w", id, err)
	}
	a.act = act

	err = s.runTurn(ctx, a, act.Activate)
	if err != nil {
		a.close()
		s.metrics.Activated(id.Type, false)
		return nil, fmt.Errorf("activate %s: %w", id, err)
	}

	s.mu.Lock()
	s.activations[id] = a
	count := len(s.activations)
	s.mu.Unlock()

	s.metrics.Activated(id.Type, true)
	s.metrics.ActiveActivations(count)
	s.log.Debug("actor activated", slog.String("actor", id.String()))
	return a, nil
}

// deactivate tears a down. It must run inside the lane of a.id. The
// activation is removed even if the actor's Deactivate fails.
func (s *Silo) deactivate(ctx context.Context, a *activation, reason string) error {
	a.close()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config().DeactivateTimeout)
	defer cancel()
	err := s.runTurn(ctx, a, a.act.Deactivate)

	s.mu.Lock()
	if s.activations[a.id] == a {
		delete(s.activations, a.id)
	}
	count := len(s.activations)
	s.mu.Unlock()

	s.metrics.Deactivated(a.id.Type, reason)
	s.metrics.ActiveActivations(count)
	s.log.Debug("actor deactivated", slog.String("actor", a.id.String()), slog.String("reason", reason))

	if err != nil {
		return fmt.Errorf("deactivate %s: %w", a.id, err)
	}
	return nil
}

func (s *Silo) lookup(id actor.Identity) *activation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activations[id]
}

func (s *Silo) isCurrent(a *activation) bool {
	return s.lookup(a.id) == a
}

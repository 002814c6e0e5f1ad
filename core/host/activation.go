package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codewandler/grain-go/core/actor"
)

var ErrInvalidReminder = errors.New("invalid reminder")

// activation is one live instance of an actor in a Silo. It implements
// actor.Runtime and actor.ReminderService for that instance.
type activation struct {
	silo *Silo
	id   actor.Identity
	kind actor.Kind
	act  *actor.Actor

	mu           sync.Mutex
	idleDeadline time.Time
	deactivate   bool
	closed       bool
	reminders    map[string]context.CancelFunc
}

func newActivation(s *Silo, id actor.Identity, kind actor.Kind) *activation {
	return &activation{
		silo:      s,
		id:        id,
		kind:      kind,
		reminders: make(map[string]context.CancelFunc),
	}
}

func (a *activation) Reminders() actor.ReminderService { return a }

func (a *activation) DeactivateOnIdle() {
	a.mu.Lock()
	a.deactivate = true
	a.mu.Unlock()
}

func (a *activation) DelayDeactivation(d time.Duration) {
	a.mu.Lock()
	a.extendLocked(time.Now().Add(d))
	a.mu.Unlock()
}

// touch records activity, moving the idle deadline forward.
func (a *activation) touch(idle time.Duration) {
	a.mu.Lock()
	a.extendLocked(time.Now().Add(idle))
	a.mu.Unlock()
}

func (a *activation) extendLocked(deadline time.Time) {
	if deadline.After(a.idleDeadline) {
		a.idleDeadline = deadline
	}
}

// idle reports whether the activation may be collected at now.
func (a *activation) idle(now time.Time) bool {
	if a.kind.Sticky() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed && now.After(a.idleDeadline)
}

// takeDeactivate reports and clears a pending DeactivateOnIdle request.
func (a *activation) takeDeactivate() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := a.deactivate
	a.deactivate = false
	return d
}

// Register schedules name to fire after due and then every period. A
// period of zero fires once. Registering an existing name replaces it.
func (a *activation) Register(_ context.Context, name string, due, period time.Duration) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidReminder)
	}
	if due < 0 || period < 0 {
		return fmt.Errorf("%w: %s: negative interval", ErrInvalidReminder, name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("register reminder %s on %s: %w", name, a.id, ErrStopped)
	}
	if cancel, ok := a.reminders[name]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(a.silo.ctx)
	a.reminders[name] = cancel

	a.silo.wg.Add(1)
	go func() {
		defer a.silo.wg.Done()
		a.runReminder(ctx, name, due, period)
	}()
	return nil
}

func (a *activation) Unregister(_ context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cancel, ok := a.reminders[name]
	if !ok {
		return fmt.Errorf("%w: %s is not registered on %s", ErrInvalidReminder, name, a.id)
	}
	cancel()
	delete(a.reminders, name)
	return nil
}

// close stops all reminders. Further registrations fail.
func (a *activation) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for name, cancel := range a.reminders {
		cancel()
		delete(a.reminders, name)
	}
}

func (a *activation) runReminder(ctx context.Context, name string, due, period time.Duration) {
	timer := time.NewTimer(due)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	a.fire(ctx, name)

	if period == 0 {
		a.mu.Lock()
		if ctx.Err() == nil {
			a.reminders[name]()
			delete(a.reminders, name)
		}
		a.mu.Unlock()
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.fire(ctx, name)
		}
	}
}

// fire delivers one reminder tick as a turn. Ticks that arrive after the
// activation went away are dropped.
func (a *activation) fire(ctx context.Context, name string) {
	s := a.silo
	err := s.turns.DoContext(ctx, a.id, func() error {
		if ctx.Err() != nil || !s.isCurrent(a) {
			return nil
		}
		s.metrics.ReminderFired(a.id.Type)
		return s.runTurn(ctx, a, func(ctx context.Context) error {
			return a.act.ReceiveReminder(ctx, name)
		})
	})
	if err != nil && ctx.Err() == nil {
		s.log.Warn("reminder failed",
			slog.String("actor", a.id.String()),
			slog.String("reminder", name),
			slog.Any("error", err),
		)
	}
}

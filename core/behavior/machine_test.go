package behavior

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/grain-go/core/dispatch"
)

func echo(_ context.Context, msg any) (any, error) { return msg, nil }

type recorder struct {
	calls    []string
	preErr   error
	postErr  error
	failures []error
}

func (r *recorder) OnTransitioning(_ context.Context, t Transition) error {
	r.calls = append(r.calls, "transitioning "+t.String())
	return r.preErr
}

func (r *recorder) OnTransitioned(_ context.Context, t Transition) error {
	r.calls = append(r.calls, "transitioned "+t.String())
	return r.postErr
}

func (r *recorder) OnTransitionFailure(_ context.Context, t Transition, err error) {
	r.calls = append(r.calls, "failure "+t.String())
	r.failures = append(r.failures, err)
}

func newIdleBusy(t *testing.T, opts ...Option) *Machine {
	t.Helper()
	m := New(opts...)
	require.NoError(t, m.Register(Behavior{Name: "idle", OnReceive: echo}))
	require.NoError(t, m.Register(Behavior{Name: "busy", OnReceive: m.Unhandled}))
	return m
}

func TestMachine_StartsInNull(t *testing.T) {
	m := New(WithOwner("lightbulb:1"))

	require.True(t, m.Current().IsNull())
	require.True(t, m.Is(NullName))
	require.NoError(t, m.Activate(t.Context()))
	require.NoError(t, m.Deactivate(t.Context()))

	_, err := m.Receive(t.Context(), "ping")
	require.ErrorIs(t, err, dispatch.ErrUnhandledMessage)

	var unhandled *dispatch.UnhandledMessageError
	require.ErrorAs(t, err, &unhandled)
	require.Equal(t, "lightbulb:1", unhandled.Actor)
	require.Equal(t, "ping", unhandled.Message)

	err = m.Reminder(t.Context(), "wake")
	require.ErrorIs(t, err, ErrUnhandledReminder)
	require.ErrorContains(t, err, `"wake"`)
}

func TestMachine_IdleBusyScenario(t *testing.T) {
	m := newIdleBusy(t)
	require.NoError(t, m.Initial("idle"))

	res, err := m.Receive(t.Context(), "ping")
	require.NoError(t, err)
	require.Equal(t, "ping", res)

	require.NoError(t, m.Become(t.Context(), "busy"))
	require.True(t, m.Is("busy"))

	_, err = m.Receive(t.Context(), "ping")
	require.ErrorIs(t, err, dispatch.ErrUnhandledMessage)
}

func TestMachine_Become_HookOrder(t *testing.T) {
	rec := &recorder{}
	m := newIdleBusy(t, WithObserver(rec))
	require.NoError(t, m.Initial("idle"))

	require.NoError(t, m.Become(t.Context(), "busy"))
	require.Equal(t, []string{
		"transitioning idle -> busy",
		"transitioned idle -> busy",
	}, rec.calls)
	require.False(t, m.Transitioning())
}

func TestMachine_Become_PreHookFailureRollsBack(t *testing.T) {
	hookErr := errors.New("not now")
	rec := &recorder{preErr: hookErr}
	m := newIdleBusy(t, WithObserver(rec))
	require.NoError(t, m.Initial("idle"))
	before := m.Current()

	err := m.Become(t.Context(), "busy")
	require.Same(t, hookErr, err)
	require.Same(t, before, m.Current())
	require.Equal(t, []error{hookErr}, rec.failures)
	require.Equal(t, []string{
		"transitioning idle -> busy",
		"failure idle -> busy",
	}, rec.calls)

	res, err := m.Receive(t.Context(), "still idle")
	require.NoError(t, err)
	require.Equal(t, "still idle", res)
}

func TestMachine_Become_PostHookFailureKeepsNewBehavior(t *testing.T) {
	hookErr := errors.New("audit failed")
	rec := &recorder{postErr: hookErr}
	m := newIdleBusy(t, WithObserver(rec))
	require.NoError(t, m.Initial("idle"))

	err := m.Become(t.Context(), "busy")
	require.ErrorIs(t, err, hookErr)
	require.True(t, m.Is("busy"))
	require.Empty(t, rec.failures)
}

func TestMachine_Become_Invalid(t *testing.T) {
	m := newIdleBusy(t)

	for _, name := range []string{"", "unknown", NullName} {
		err := m.Become(t.Context(), name)
		require.ErrorIs(t, err, ErrInvalidTransition, name)

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		require.Equal(t, NullName, invalid.From)
		require.Equal(t, name, invalid.To)
	}
	require.True(t, m.Current().IsNull())
}

func TestMachine_Become_ReentrantFails(t *testing.T) {
	var (
		m          *Machine
		reentryErr []error
	)
	m = newIdleBusy(t, WithObserver(Hooks{
		Transitioning: func(ctx context.Context, t Transition) error {
			reentryErr = append(reentryErr, m.Become(ctx, "idle"))
			return nil
		},
		Transitioned: func(ctx context.Context, t Transition) error {
			reentryErr = append(reentryErr, m.Become(ctx, "idle"))
			return nil
		},
	}))
	require.NoError(t, m.Initial("idle"))

	require.NoError(t, m.Become(t.Context(), "busy"))
	require.True(t, m.Is("busy"))
	require.Len(t, reentryErr, 2)
	for _, err := range reentryErr {
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.ErrorContains(t, err, "in progress")
	}

	// guard released after the transition
	require.False(t, m.Transitioning())
}

func TestMachine_Become_GuardReleasedAfterFailure(t *testing.T) {
	fail := true
	m := newIdleBusy(t, WithObserver(Hooks{
		Transitioning: func(ctx context.Context, t Transition) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		},
	}))

	require.Error(t, m.Become(t.Context(), "busy"))
	fail = false
	require.NoError(t, m.Become(t.Context(), "busy"))
	require.True(t, m.Is("busy"))
}

func TestMachine_Initial(t *testing.T) {
	m := newIdleBusy(t)

	require.ErrorIs(t, m.Initial("nope"), ErrInvalidTransition)
	require.NoError(t, m.Initial("idle"))
	require.ErrorIs(t, m.Initial("busy"), ErrInvalidTransition)
	require.True(t, m.Is("idle"))
}

func TestMachine_Register(t *testing.T) {
	m := New()

	require.ErrorIs(t, m.Register(Behavior{}), ErrInvalidBehavior)
	require.ErrorIs(t, m.Register(Behavior{Name: NullName}), ErrInvalidBehavior)
	require.ErrorIs(t, m.Register(Behavior{Name: "a", Super: "a"}), ErrInvalidBehavior)
	require.ErrorIs(t, m.Register(Behavior{Name: "child", Super: "missing"}), ErrInvalidBehavior)

	require.NoError(t, m.Register(Behavior{Name: "b"}))
	require.ErrorIs(t, m.Register(Behavior{Name: "b"}), ErrDuplicateBehavior)
	require.NoError(t, m.Register(Behavior{Name: "a", Super: "b"}))

	require.Equal(t, []string{"a", "b"}, m.Behaviors())
}

func TestMachine_LifecycleRouting(t *testing.T) {
	var calls []string
	m := New()
	require.NoError(t, m.Register(Behavior{
		Name: "on",
		OnActivate: func(context.Context) error {
			calls = append(calls, "activate")
			return nil
		},
		OnDeactivate: func(context.Context) error {
			calls = append(calls, "deactivate")
			return errors.New("flush failed")
		},
		OnReminder: func(_ context.Context, id string) error {
			calls = append(calls, "reminder "+id)
			return nil
		},
	}))
	require.NoError(t, m.Initial("on"))

	require.NoError(t, m.Activate(t.Context()))
	require.NoError(t, m.Reminder(t.Context(), "tick"))
	require.ErrorContains(t, m.Deactivate(t.Context()), "flush failed")
	require.Equal(t, []string{"activate", "reminder tick", "deactivate"}, calls)
}

func TestMachine_SuperChain(t *testing.T) {
	var activated []string
	m := New()
	require.NoError(t, m.Register(Behavior{
		Name: "online",
		OnActivate: func(context.Context) error {
			activated = append(activated, "online")
			return nil
		},
		OnReceive: func(ctx context.Context, msg any) (any, error) {
			if msg == "status" {
				return "online", nil
			}
			return m.Unhandled(ctx, msg)
		},
		OnReminder: func(_ context.Context, id string) error {
			return nil
		},
	}))
	require.NoError(t, m.Register(Behavior{
		Name:  "on",
		Super: "online",
		OnReceive: func(ctx context.Context, msg any) (any, error) {
			if msg == "toggle" {
				return "off", nil
			}
			return m.Unhandled(ctx, msg)
		},
		OnReminder: m.UnhandledReminder,
	}))
	require.NoError(t, m.Initial("on"))

	require.NoError(t, m.Activate(t.Context()))
	require.Equal(t, []string{"online"}, activated)

	tests := []struct {
		msg     any
		want    any
		wantErr error
	}{
		{"toggle", "off", nil},
		{"status", "online", nil},
		{"other", nil, dispatch.ErrUnhandledMessage},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.msg), func(t *testing.T) {
			res, err := m.Receive(t.Context(), tt.msg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, res)
		})
	}

	require.NoError(t, m.Reminder(t.Context(), "tick"))
}

func TestMachine_CustomUnhandled(t *testing.T) {
	m := New(
		WithUnhandledReceive(func(_ context.Context, msg any) (any, error) {
			return "dropped", nil
		}),
		WithUnhandledReminder(func(_ context.Context, id string) error {
			return fmt.Errorf("reminder %s ignored", id)
		}),
	)

	res, err := m.Receive(t.Context(), 42)
	require.NoError(t, err)
	require.Equal(t, "dropped", res)
	require.ErrorContains(t, m.Reminder(t.Context(), "x"), "reminder x ignored")
}

func TestMachine_ForeignUnhandledErrorPropagates(t *testing.T) {
	var childRuns, parentRuns int
	downstream := &dispatch.UnhandledMessageError{Actor: "other:1", Message: "ping"}
	other := New(WithOwner("other:2"))

	m := New(WithOwner("me:1"))
	require.NoError(t, m.Register(Behavior{
		Name: "parent",
		OnReceive: func(context.Context, any) (any, error) {
			parentRuns++
			return "parent", nil
		},
		OnReminder: func(context.Context, string) error {
			parentRuns++
			return nil
		},
	}))
	require.NoError(t, m.Register(Behavior{
		Name:  "child",
		Super: "parent",
		OnReceive: func(ctx context.Context, msg any) (any, error) {
			childRuns++
			if msg == "remote" {
				return other.Unhandled(ctx, msg)
			}
			return nil, downstream
		},
		OnReminder: func(ctx context.Context, id string) error {
			childRuns++
			return other.UnhandledReminder(ctx, id)
		},
	}))
	require.NoError(t, m.Initial("child"))

	res, err := m.Receive(t.Context(), "ping")
	require.Nil(t, res)
	require.Same(t, downstream, err)

	_, err = m.Receive(t.Context(), "remote")
	require.ErrorIs(t, err, dispatch.ErrUnhandledMessage)
	require.ErrorContains(t, err, "other:2")

	err = m.Reminder(t.Context(), "tick")
	require.ErrorIs(t, err, ErrUnhandledReminder)
	require.ErrorContains(t, err, "other:2")

	require.Equal(t, 3, childRuns)
	require.Zero(t, parentRuns)
}

func TestMachine_RejectedChainReachesPolicy(t *testing.T) {
	var (
		m              *Machine
		policyMessages []any
		policyTicks    []string
	)
	m = New(
		WithUnhandledReceive(func(_ context.Context, msg any) (any, error) {
			policyMessages = append(policyMessages, msg)
			return "dead-lettered", nil
		}),
		WithUnhandledReminder(func(_ context.Context, id string) error {
			policyTicks = append(policyTicks, id)
			return nil
		}),
	)
	require.NoError(t, m.Register(Behavior{
		Name: "base",
		OnReceive: func(ctx context.Context, msg any) (any, error) {
			return m.Unhandled(ctx, msg)
		},
	}))
	require.NoError(t, m.Register(Behavior{
		Name:       "solo",
		Super:      "base",
		OnReceive:  m.Unhandled,
		OnReminder: m.UnhandledReminder,
	}))
	require.NoError(t, m.Initial("solo"))

	res, err := m.Receive(t.Context(), 42)
	require.NoError(t, err)
	require.Equal(t, "dead-lettered", res)
	require.NoError(t, m.Reminder(t.Context(), "tick"))

	require.Equal(t, []any{42}, policyMessages)
	require.Equal(t, []string{"tick"}, policyTicks)
}

func TestMachine_DefaultPolicyError(t *testing.T) {
	m := newIdleBusy(t, WithOwner("lightbulb:1"))
	require.NoError(t, m.Initial("idle"))
	require.NoError(t, m.Become(t.Context(), "busy"))

	_, err := m.Receive(t.Context(), "ping")

	var unhandled *dispatch.UnhandledMessageError
	require.ErrorAs(t, err, &unhandled)
	require.Same(t, unhandled, err)
	require.Equal(t, "lightbulb:1", unhandled.Actor)
}

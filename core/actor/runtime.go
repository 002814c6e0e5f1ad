package actor

import (
	"context"
	"time"
)

type (
	// Runtime is the per-activation handle a host supplies at construction.
	Runtime interface {
		Reminders() ReminderService
		// DeactivateOnIdle asks the host to deactivate the instance once
		// the current turn completes.
		DeactivateOnIdle()
		// DelayDeactivation keeps the instance active for at least d.
		DelayDeactivation(d time.Duration)
	}

	// ReminderService schedules reminders delivered through
	// Actor.ReceiveReminder.
	ReminderService interface {
		Register(ctx context.Context, name string, due, period time.Duration) error
		Unregister(ctx context.Context, name string) error
	}
)

type nopRuntime struct{}

func (nopRuntime) Reminders() ReminderService      { return nopReminders{} }
func (nopRuntime) DeactivateOnIdle()               {}
func (nopRuntime) DelayDeactivation(time.Duration) {}

type nopReminders struct{}

func (nopReminders) Register(context.Context, string, time.Duration, time.Duration) error {
	return nil
}
func (nopReminders) Unregister(context.Context, string) error { return nil }

// NopRuntime returns a Runtime that ignores every request. Useful for
// driving actors in unit tests without a host.
func NopRuntime() Runtime { return nopRuntime{} }

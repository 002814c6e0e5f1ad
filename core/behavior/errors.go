package behavior

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidBehavior   = errors.New("invalid behavior")
	ErrDuplicateBehavior = errors.New("duplicate behavior")
	ErrUnhandledReminder = errors.New("unhandled reminder")
)

type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %q: %s", e.From, e.To, e.Reason)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// UnhandledReminderError is returned when no behavior handles a reminder.
type UnhandledReminderError struct {
	Actor    any
	Reminder string
}

func (e *UnhandledReminderError) Error() string {
	return fmt.Sprintf("actor %v cannot handle reminder %q", e.Actor, e.Reminder)
}

func (e *UnhandledReminderError) Is(target error) bool { return target == ErrUnhandledReminder }

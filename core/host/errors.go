package host

import "errors"

var (
	ErrStopped          = errors.New("silo stopped")
	ErrUnknownActorType = errors.New("unknown actor type")
	ErrDuplicateKind    = errors.New("actor type already registered")
	ErrSelfRequest      = errors.New("actor cannot request itself")
	ErrTurnPanicked     = errors.New("turn panicked")
	ErrInvalidConfig    = errors.New("invalid config")
)

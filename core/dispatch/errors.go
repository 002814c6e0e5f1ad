package dispatch

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNilMessage       = errors.New("message must not be nil")
	ErrUnhandledMessage = errors.New("unhandled message")
	ErrDuplicateHandler = errors.New("duplicate handler")
)

// UnhandledMessageError is returned when no handler matches a message and
// no fallback was supplied.
type UnhandledMessageError struct {
	Actor   any
	Message any
}

func (e *UnhandledMessageError) Error() string {
	return fmt.Sprintf("actor %s cannot handle message of type %T", describe(e.Actor), e.Message)
}

func (e *UnhandledMessageError) Is(target error) bool { return target == ErrUnhandledMessage }

type DuplicateHandlerError struct {
	Type reflect.Type
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("handler for %v is already registered", e.Type)
}

func (e *DuplicateHandlerError) Is(target error) bool { return target == ErrDuplicateHandler }

func describe(x any) string {
	if s, ok := x.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", x)
}

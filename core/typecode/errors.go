package typecode

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrDuplicateTypeCode = errors.New("duplicate type code")
	ErrAlreadyRegistered = errors.New("type already registered")
	ErrUnknownTypeCode   = errors.New("unknown type code")
	ErrUnknownType       = errors.New("unknown type")
	ErrNilType           = errors.New("nil type")
)

// DuplicateTypeCodeError is returned when a code is already bound to a
// different type.
type DuplicateTypeCodeError struct {
	Code     string
	Existing reflect.Type
	Type     reflect.Type
}

func (e *DuplicateTypeCodeError) Error() string {
	return fmt.Sprintf(
		"type %s is already registered under code %q: declare a TypeCode() for %s",
		e.Existing, e.Code, e.Type,
	)
}

func (e *DuplicateTypeCodeError) Is(target error) bool { return target == ErrDuplicateTypeCode }

// AlreadyRegisteredError is returned when the same type is registered twice.
type AlreadyRegisteredError struct {
	Type reflect.Type
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("type %s has already been registered", e.Type)
}

func (e *AlreadyRegisteredError) Is(target error) bool { return target == ErrAlreadyRegistered }

type UnknownTypeCodeError struct {
	Code string
}

func (e *UnknownTypeCodeError) Error() string {
	return fmt.Sprintf("unable to map type code %q to a registered type", e.Code)
}

func (e *UnknownTypeCodeError) Is(target error) bool { return target == ErrUnknownTypeCode }

type UnknownTypeError struct {
	Type reflect.Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unable to map type %v to a registered type code", e.Type)
}

func (e *UnknownTypeError) Is(target error) bool { return target == ErrUnknownType }

package thunk

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidArgumentConversion reports an argument that was accepted by
	// resolution but could not be converted when the thunk ran.
	ErrInvalidArgumentConversion = errors.New("invalid argument conversion")

	// ErrArity reports a thunk invoked with the wrong number of arguments.
	ErrArity = fmt.Errorf("%w: wrong number of arguments", ErrInvalidArgumentConversion)
)

// ConversionError carries the position and values of a failed argument
// conversion.
type ConversionError struct {
	Thunk    string
	Target   reflect.Type
	Position int
	Param    reflect.Type
	Arg      any
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("thunk %s for %s: argument %d (%T) as %s: %v",
		e.Thunk, e.Target, e.Position, e.Arg, e.Param, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool {
	return target == ErrInvalidArgumentConversion
}

// ConstructorError wraps the error returned by a (T, error) constructor.
type ConstructorError struct {
	Target reflect.Type
	Err    error
}

func (e *ConstructorError) Error() string {
	return fmt.Sprintf("constructor of %s failed: %v", e.Target, e.Err)
}

func (e *ConstructorError) Unwrap() error { return e.Err }

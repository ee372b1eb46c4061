// Package signature describes constructor overloads: their parameter types,
// the rule deciding whether runtime arguments fit them, and the conversion of
// those arguments to the declared types.
//
// A value fits a parameter when it has the declared type exactly, when the
// declared type is reached by walking the value's embedding chain (first
// embedded field only), or when the parameter is the empty interface. Nil fits
// reference kinds only. Implemented interfaces are never considered.
package signature

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var errErrorType = reflect.TypeFor[error]()

// ErrNotFunc is returned by Of when the given type is not a function type.
var ErrNotFunc = errors.New("constructor must be a func")

// Signature is the immutable parameter list of one constructor overload.
type Signature struct {
	params   []Parameter
	variadic bool
	text     string
}

// New builds a signature from declared parameter types.
func New(types ...reflect.Type) *Signature {
	params := make([]Parameter, len(types))
	for i, t := range types {
		params[i] = NewParameter(t)
	}
	return newSignature(params, false)
}

// Of builds the signature of a constructor function type. A variadic final
// parameter is one parameter of its slice type.
func Of(fn reflect.Type) (*Signature, error) {
	if fn == nil || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %v", ErrNotFunc, fn)
	}
	params := make([]Parameter, fn.NumIn())
	for i := range params {
		params[i] = NewParameter(fn.In(i))
	}
	return newSignature(params, fn.IsVariadic()), nil
}

// Returns validates the results of a constructor function type against its
// target type. Allowed shapes are T and (T, error).
func Returns(fn reflect.Type, target reflect.Type) (withErr bool, err error) {
	switch fn.NumOut() {
	case 1:
	case 2:
		if fn.Out(1) != errErrorType {
			return false, fmt.Errorf("second result of %s must be error", fn)
		}
		withErr = true
	default:
		return false, fmt.Errorf("%s must return %s or (%s, error)", fn, target, target)
	}
	if fn.Out(0) != target {
		return false, fmt.Errorf("%s returns %s, not %s", fn, fn.Out(0), target)
	}
	return withErr, nil
}

func newSignature(params []Parameter, variadic bool) *Signature {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return &Signature{params: params, variadic: variadic, text: b.String()}
}

// Arity returns the number of declared parameters.
func (s *Signature) Arity() int { return len(s.params) }

// Param returns the i-th parameter.
func (s *Signature) Param(i int) Parameter { return s.params[i] }

// Variadic reports whether the last parameter collects variadic arguments.
func (s *Signature) Variadic() bool { return s.variadic }

// String renders the parameter types, e.g. "(string, int)".
func (s *Signature) String() string { return s.text }

// Params returns a copy of the parameter list.
func (s *Signature) Params() []Parameter {
	out := make([]Parameter, len(s.params))
	copy(out, s.params)
	return out
}

// Compatible reports whether args fit this overload position by position.
// A nil slice counts as no arguments.
func (s *Signature) Compatible(args []any) bool {
	if len(args) != len(s.params) {
		return false
	}
	for i, p := range s.params {
		if !p.Compatible(args[i]) {
			return false
		}
	}
	return true
}

// Describe renders the dynamic types of args the way String renders
// parameters, with nil for absent values.
func Describe(args []any) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a == nil {
			b.WriteString("nil")
			continue
		}
		b.WriteString(reflect.TypeOf(a).String())
	}
	b.WriteByte(')')
	return b.String()
}

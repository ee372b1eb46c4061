// Package thunk synthesizes reusable invocation paths for constructors.
//
// A Thunk is built once per constructor and then called any number of times
// from any number of goroutines. It converts an argument slice to the
// constructor's declared parameter types, calls the constructor and returns
// the new instance as any.
//
// Two synthesis paths exist. Constructors declared through Typed0..Typed4 are
// called directly through generic closures; any other func value is called
// through a reflect.Value prepared at build time.
package thunk

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/Konsultn-Engineering/booster/signature"
)

// Func is the compiled body of a thunk. It trusts the argument count.
type Func func(args []any) (any, error)

// Thunk is a compiled invocation path bound to one constructor overload.
type Thunk struct {
	id     uuid.UUID
	name   string
	target reflect.Type
	sig    *signature.Signature
	typed  bool
	body   Func
}

// Build synthesizes the thunk for src as a constructor of target.
func Build(target reflect.Type, src Source) (*Thunk, error) {
	if err := src.Validate(target); err != nil {
		return nil, err
	}
	sig, err := signature.Of(src.fn.Type())
	if err != nil {
		return nil, err
	}

	t := newThunk(target, sig)
	if src.compile != nil {
		t.typed = true
		t.body = src.compile(t)
		return t, nil
	}
	t.body = reflective(t, src.fn, src.withErr)
	return t, nil
}

// Implicit returns the zero-argument thunk of a type without declared
// constructors. Types that cannot be instantiated that way report false.
func Implicit(target reflect.Type) (*Thunk, bool) {
	if target == nil {
		return nil, false
	}

	var body Func
	switch target.Kind() {
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	case reflect.Pointer:
		elem := target.Elem()
		body = func([]any) (any, error) { return reflect.New(elem).Interface(), nil }
	case reflect.Map:
		body = func([]any) (any, error) { return reflect.MakeMap(target).Interface(), nil }
	case reflect.Slice:
		body = func([]any) (any, error) { return reflect.MakeSlice(target, 0, 0).Interface(), nil }
	default:
		zero := reflect.Zero(target)
		body = func([]any) (any, error) { return zero.Interface(), nil }
	}

	t := newThunk(target, signature.New())
	t.body = body
	return t, true
}

func newThunk(target reflect.Type, sig *signature.Signature) *Thunk {
	id := uuid.New()
	return &Thunk{
		id:     id,
		name:   "._" + id.String(),
		target: target,
		sig:    sig,
	}
}

// ID returns the unique identity assigned when the thunk was built.
func (t *Thunk) ID() uuid.UUID { return t.id }

// Name returns the synthesized name, "._" followed by the ID.
func (t *Thunk) Name() string { return t.name }

// Target returns the type the thunk constructs.
func (t *Thunk) Target() reflect.Type { return t.target }

// Signature returns the parameter list of the bound constructor.
func (t *Thunk) Signature() *signature.Signature { return t.sig }

// Typed reports whether the thunk runs without reflect.Value.Call.
func (t *Thunk) Typed() bool { return t.typed }

// String renders the target and signature, e.g. "*pkg.User(string, int)".
func (t *Thunk) String() string {
	return t.target.String() + t.sig.String()
}

// Call constructs a new instance from args.
func (t *Thunk) Call(args []any) (any, error) {
	if len(args) != t.sig.Arity() {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, t, t.sig.Arity(), len(args))
	}
	return t.body(args)
}

// Invoke is Call with variadic arguments.
func (t *Thunk) Invoke(args ...any) (any, error) {
	return t.Call(args)
}

func (t *Thunk) conversionError(pos int, arg any, err error) error {
	return &ConversionError{
		Thunk:    t.name,
		Target:   t.target,
		Position: pos,
		Param:    t.sig.Param(pos).Type,
		Arg:      arg,
		Err:      err,
	}
}

func reflective(t *Thunk, fn reflect.Value, withErr bool) Func {
	params := t.sig.Params()
	variadic := t.sig.Variadic()

	return func(args []any) (any, error) {
		in := make([]reflect.Value, len(params))
		for i, p := range params {
			v, err := p.Convert(args[i])
			if err != nil {
				return nil, t.conversionError(i, args[i], err)
			}
			in[i] = v
		}

		var out []reflect.Value
		if variadic {
			out = fn.CallSlice(in)
		} else {
			out = fn.Call(in)
		}

		if withErr && !out[1].IsNil() {
			return nil, &ConstructorError{Target: t.target, Err: out[1].Interface().(error)}
		}
		return out[0].Interface(), nil
	}
}

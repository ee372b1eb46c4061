package signature

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotConvertible is returned by Parameter.Convert when a value cannot be
// passed as the parameter's declared type.
var ErrNotConvertible = errors.New("value not convertible to parameter type")

// Parameter describes one declared constructor parameter.
type Parameter struct {
	Type reflect.Type
	// Nullable is true for reference kinds, which accept a nil argument.
	Nullable bool
	// Root is true for the empty interface, which every non-nil value
	// satisfies.
	Root bool
}

// NewParameter builds the descriptor for a declared parameter type.
func NewParameter(t reflect.Type) Parameter {
	return Parameter{
		Type:     t,
		Nullable: IsReference(t),
		Root:     t.Kind() == reflect.Interface && t.NumMethod() == 0,
	}
}

// IsReference reports whether nil is a valid value of t.
func IsReference(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// Compatible reports whether arg may be passed at this parameter position.
func (p Parameter) Compatible(arg any) bool {
	if arg == nil {
		return p.Nullable
	}
	return p.Accepts(reflect.TypeOf(arg))
}

// Accepts is Compatible for a known non-nil dynamic type.
func (p Parameter) Accepts(t reflect.Type) bool {
	if t == p.Type || p.Root {
		return true
	}
	return LineageOf(t).Index(p.Type) > 0
}

// Convert turns arg into a value of the declared type, ready to be passed to
// reflect.Value.Call. Assignable values are used as they are; otherwise the
// lineage of the dynamic type is walked down to the declared type.
func (p Parameter) Convert(arg any) (reflect.Value, error) {
	if arg == nil {
		if !p.Nullable {
			return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrNotConvertible, p.Type)
		}
		return reflect.Zero(p.Type), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(p.Type) {
		return v, nil
	}

	lineage := LineageOf(v.Type())
	n := lineage.Index(p.Type)
	if n < 0 {
		return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNotConvertible, v.Type(), p.Type)
	}
	for _, link := range lineage[:n] {
		next, err := link.follow(v)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %s to %s: %v", ErrNotConvertible, reflect.TypeOf(arg), p.Type, err)
		}
		v = next
	}
	return v, nil
}

func (p Parameter) String() string {
	return p.Type.String()
}

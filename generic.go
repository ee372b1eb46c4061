package booster

import (
	"fmt"
	"reflect"
)

// Create constructs a T from args with the activator a, or with the default
// activator when a is nil.
//
//	user, err := booster.Create[*User](nil, "ann", 31)
func Create[T any](a *Activator, args ...any) (T, error) {
	var zero T
	if a == nil {
		a = defaultActivator
	}
	obj, err := a.CreateInstance(reflect.TypeFor[T](), args...)
	if err != nil {
		return zero, err
	}
	return cast[T](obj)
}

// MustCreate is like Create but panics on failure.
func MustCreate[T any](a *Activator, args ...any) T {
	v, err := Create[T](a, args...)
	if err != nil {
		panic(fmt.Sprintf("booster: MustCreate[%v]: %v", reflect.TypeFor[T](), err))
	}
	return v
}

// NewFactory resolves the constructor of T once against sample and returns a
// typed constructor function bound to it.
//
//	newUser, err := booster.NewFactory[*User](nil, "", 0)
//	u, err := newUser("ann", 31)
func NewFactory[T any](a *Activator, sample ...any) (func(args ...any) (T, error), error) {
	if a == nil {
		a = defaultActivator
	}
	th, err := a.CreateFactory(reflect.TypeFor[T](), sample...)
	if err != nil {
		return nil, err
	}
	return func(args ...any) (T, error) {
		obj, err := th.Call(args)
		if err != nil {
			var zero T
			return zero, err
		}
		return cast[T](obj)
	}, nil
}

func cast[T any](obj any) (T, error) {
	typed, ok := obj.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("constructor returned %T, not %v", obj, reflect.TypeFor[T]())
	}
	return typed, nil
}

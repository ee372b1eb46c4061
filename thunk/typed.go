package thunk

import (
	"reflect"
)

// Typed0 declares a constructor without parameters.
func Typed0[T any](fn func() T) Source {
	return Source{
		fn: reflect.ValueOf(fn),
		compile: func(*Thunk) Func {
			return func([]any) (any, error) {
				return fn(), nil
			}
		},
	}
}

// Typed1 declares a one-parameter constructor called without reflection.
func Typed1[A, T any](fn func(A) T) Source {
	return Source{
		fn: reflect.ValueOf(fn),
		compile: func(t *Thunk) Func {
			return func(args []any) (any, error) {
				a, err := arg[A](t, 0, args[0])
				if err != nil {
					return nil, err
				}
				return fn(a), nil
			}
		},
	}
}

// Typed2 declares a two-parameter constructor called without reflection.
func Typed2[A, B, T any](fn func(A, B) T) Source {
	return Source{
		fn: reflect.ValueOf(fn),
		compile: func(t *Thunk) Func {
			return func(args []any) (any, error) {
				a, err := arg[A](t, 0, args[0])
				if err != nil {
					return nil, err
				}
				b, err := arg[B](t, 1, args[1])
				if err != nil {
					return nil, err
				}
				return fn(a, b), nil
			}
		},
	}
}

// Typed3 declares a three-parameter constructor called without reflection.
func Typed3[A, B, C, T any](fn func(A, B, C) T) Source {
	return Source{
		fn: reflect.ValueOf(fn),
		compile: func(t *Thunk) Func {
			return func(args []any) (any, error) {
				a, err := arg[A](t, 0, args[0])
				if err != nil {
					return nil, err
				}
				b, err := arg[B](t, 1, args[1])
				if err != nil {
					return nil, err
				}
				c, err := arg[C](t, 2, args[2])
				if err != nil {
					return nil, err
				}
				return fn(a, b, c), nil
			}
		},
	}
}

// Typed4 declares a four-parameter constructor called without reflection.
func Typed4[A, B, C, D, T any](fn func(A, B, C, D) T) Source {
	return Source{
		fn: reflect.ValueOf(fn),
		compile: func(t *Thunk) Func {
			return func(args []any) (any, error) {
				a, err := arg[A](t, 0, args[0])
				if err != nil {
					return nil, err
				}
				b, err := arg[B](t, 1, args[1])
				if err != nil {
					return nil, err
				}
				c, err := arg[C](t, 2, args[2])
				if err != nil {
					return nil, err
				}
				d, err := arg[D](t, 3, args[3])
				if err != nil {
					return nil, err
				}
				return fn(a, b, c, d), nil
			}
		},
	}
}

// arg narrows one argument to P. A direct type assertion covers exact and
// interface-assignable values; nil and embedded bases go through the
// parameter converter.
func arg[P any](t *Thunk, pos int, x any) (P, error) {
	if v, ok := x.(P); ok {
		return v, nil
	}

	var zero P
	v, err := t.sig.Param(pos).Convert(x)
	if err != nil {
		return zero, t.conversionError(pos, x, err)
	}
	if !v.IsValid() {
		return zero, nil
	}
	if p, ok := v.Interface().(P); ok {
		return p, nil
	}
	// Zero values of interface parameters come back as nil interfaces.
	if x == nil {
		return zero, nil
	}
	return zero, t.conversionError(pos, x, ErrInvalidArgumentConversion)
}

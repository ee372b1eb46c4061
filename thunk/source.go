package thunk

import (
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/booster/signature"
)

// Source is a declared constructor waiting to be compiled into a Thunk.
type Source struct {
	fn      reflect.Value
	withErr bool
	checked reflect.Type
	compile func(t *Thunk) Func
}

// Reflect wraps any constructor func value. Accepted shapes are
// func(...) T and func(...) (T, error).
func Reflect(fn any) (Source, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return Source{}, fmt.Errorf("%w, got %T", signature.ErrNotFunc, fn)
	}
	if v.IsNil() {
		return Source{}, fmt.Errorf("%w, got nil %s", signature.ErrNotFunc, v.Type())
	}
	return Source{fn: v}, nil
}

// Func returns the type of the wrapped constructor.
func (s Source) Func() reflect.Type {
	if !s.fn.IsValid() {
		return nil
	}
	return s.fn.Type()
}

// Returns reports the type the constructor produces.
func (s Source) Returns() reflect.Type {
	ft := s.Func()
	if ft == nil || ft.NumOut() == 0 {
		return nil
	}
	return ft.Out(0)
}

// Validate checks that the constructor produces target.
func (s *Source) Validate(target reflect.Type) error {
	if !s.fn.IsValid() || s.fn.IsNil() {
		return fmt.Errorf("%w, got empty source", signature.ErrNotFunc)
	}
	if s.checked == target {
		return nil
	}
	withErr, err := signature.Returns(s.fn.Type(), target)
	if err != nil {
		return err
	}
	s.withErr = withErr
	s.checked = target
	return nil
}

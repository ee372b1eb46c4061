// Package registry records the constructors declared for each type, in
// declaration order. It is the metadata the overload cache enumerates when it
// builds a type's entry.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Konsultn-Engineering/booster/thunk"
)

// ErrInvalidConstructor is returned by Declare for values that cannot
// construct the target type.
var ErrInvalidConstructor = errors.New("invalid constructor")

// Registry maps target types to their declared constructors.
type Registry struct {
	mu    sync.RWMutex
	decls map[reflect.Type][]thunk.Source
	order []reflect.Type

	// generation counts successful Declare calls.
	generation atomic.Uint64
}

var defaultRegistry = New()

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		decls: make(map[reflect.Type][]thunk.Source, 64),
	}
}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Declare appends constructors for target. Each ctor is either a
// thunk.Source (see thunk.Typed1 and friends) or a func value returning
// target or (target, error). Nothing is recorded unless every ctor is valid.
func (r *Registry) Declare(target reflect.Type, ctors ...any) error {
	if target == nil {
		return fmt.Errorf("%w: nil target type", ErrInvalidConstructor)
	}
	if target.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %s is an interface type", ErrInvalidConstructor, target)
	}

	sources := make([]thunk.Source, 0, len(ctors))
	for i, c := range ctors {
		src, err := toSource(c)
		if err != nil {
			return fmt.Errorf("%w: constructor %d of %s: %w", ErrInvalidConstructor, i, target, err)
		}
		if err := src.Validate(target); err != nil {
			return fmt.Errorf("%w: constructor %d of %s: %w", ErrInvalidConstructor, i, target, err)
		}
		sources = append(sources, src)
	}

	r.mu.Lock()
	if _, ok := r.decls[target]; !ok {
		r.order = append(r.order, target)
	}
	r.decls[target] = append(r.decls[target], sources...)
	r.generation.Add(1)
	r.mu.Unlock()
	return nil
}

// Constructors returns a copy of the constructors declared for target and
// whether any declaration exists.
func (r *Registry) Constructors(target reflect.Type) ([]thunk.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, ok := r.decls[target]
	if !ok {
		return nil, false
	}
	out := make([]thunk.Source, len(decl))
	copy(out, decl)
	return out, true
}

// Types returns the declared types in first-declaration order.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, len(r.order))
	copy(out, r.order)
	return out
}

// Declarations returns how many constructors are declared for target.
func (r *Registry) Declarations(target reflect.Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.decls[target])
}

// Generation changes after every successful Declare. Readers compare it with
// a previously seen value to learn that declarations changed without locking.
func (r *Registry) Generation() uint64 {
	return r.generation.Load()
}

func toSource(c any) (thunk.Source, error) {
	if src, ok := c.(thunk.Source); ok {
		return src, nil
	}
	return thunk.Reflect(c)
}

// Declare adds constructors for target to the default registry.
func Declare(target reflect.Type, ctors ...any) error {
	return defaultRegistry.Declare(target, ctors...)
}

// Register declares constructors for T on r.
//
//	registry.Register[*User](registry.Default(), NewUser, thunk.Typed1(NewUserNamed))
func Register[T any](r *Registry, ctors ...any) error {
	return r.Declare(reflect.TypeFor[T](), ctors...)
}

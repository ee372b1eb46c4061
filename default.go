package booster

import (
	"reflect"

	"github.com/Konsultn-Engineering/booster/registry"
)

var defaultActivator = New(WithRegistry(registry.Default()))

// Default returns the process-wide activator backed by registry.Default().
func Default() *Activator {
	return defaultActivator
}

// Declare adds constructors for t to the default registry.
func Declare(t reflect.Type, ctors ...any) error {
	return registry.Declare(t, ctors...)
}

// CreateInstance constructs t with the default activator.
func CreateInstance(t reflect.Type, args ...any) (any, error) {
	return defaultActivator.CreateInstance(t, args...)
}

// CreateFactory resolves a factory for t with the default activator.
func CreateFactory(t reflect.Type, sample ...any) (*Factory, error) {
	return defaultActivator.CreateFactory(t, sample...)
}

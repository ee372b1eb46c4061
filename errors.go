package booster

import (
	"errors"
	"fmt"
	"reflect"

	pluralizer "github.com/gertd/go-pluralize"

	"github.com/Konsultn-Engineering/booster/signature"
	"github.com/Konsultn-Engineering/booster/thunk"
)

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

var (
	// ErrUnresolvedOverload reports that no constructor accepts the arguments.
	ErrUnresolvedOverload = errors.New("unresolved overload")

	// ErrInvalidArgumentConversion reports an argument that passed resolution
	// but could not be converted when the constructor ran.
	ErrInvalidArgumentConversion = thunk.ErrInvalidArgumentConversion
)

// UnresolvedOverloadError describes a failed resolution.
type UnresolvedOverloadError struct {
	Type reflect.Type
	// ArgTypes renders the dynamic argument types, e.g. "(string, nil)".
	ArgTypes string
	// Declared is the number of overloads the type has.
	Declared int
}

func newUnresolvedOverloadError(t reflect.Type, args []any, declared int) *UnresolvedOverloadError {
	return &UnresolvedOverloadError{
		Type:     t,
		ArgTypes: signature.Describe(args),
		Declared: declared,
	}
}

func (e *UnresolvedOverloadError) Error() string {
	return fmt.Sprintf("%v: no constructor of %v accepts %s; %s declared",
		ErrUnresolvedOverload, e.Type, e.ArgTypes,
		pluralizeClient.Pluralize("constructor", e.Declared, true))
}

func (e *UnresolvedOverloadError) Is(target error) bool {
	return target == ErrUnresolvedOverload
}

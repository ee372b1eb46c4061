package cache

import (
	"reflect"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/booster/signature"
	"github.com/Konsultn-Engineering/booster/thunk"
)

// Overload pairs a constructor's signature with its compiled thunk.
type Overload struct {
	Signature *signature.Signature
	Thunk     *thunk.Thunk
}

// Entry is the overload table of one type. It is built once and never
// modified afterwards.
type Entry struct {
	Type      reflect.Type
	BuildID   ulid.ULID
	BuiltAt   time.Time
	Overloads []Overload
	// Declared is the number of declarations the table was built from,
	// including any skipped as invalid.
	Declared int
	// Implicit is set when the only overload is the synthesized zero-argument
	// constructor of an undeclared type.
	Implicit bool
}

// Len returns the number of overloads.
func (e *Entry) Len() int {
	return len(e.Overloads)
}

// Match returns the index of the first overload in declaration order whose
// signature accepts args, or NoMatch.
func (e *Entry) Match(args []any) int {
	for i := range e.Overloads {
		if e.Overloads[i].Signature.Compatible(args) {
			return i
		}
	}
	return NoMatch
}

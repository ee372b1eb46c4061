// Package resolver picks the constructor overload that fits a set of runtime
// arguments.
package resolver

import (
	"reflect"

	"github.com/Konsultn-Engineering/booster/cache"
	"github.com/Konsultn-Engineering/booster/thunk"
)

// Resolver scans a type's overloads in declaration order and returns the
// first one whose signature accepts the arguments. Not finding one is a
// normal outcome and is reported through the boolean result.
type Resolver struct {
	types *cache.TypeCache
	memo  *cache.Memo
}

// New returns a resolver over types. memo may be nil.
func New(types *cache.TypeCache, memo *cache.Memo) *Resolver {
	return &Resolver{types: types, memo: memo}
}

// Resolve returns the thunk of the first compatible overload of t.
func (r *Resolver) Resolve(t reflect.Type, args []any) (*thunk.Thunk, bool) {
	entry := r.types.GetOrBuild(t)
	if entry.Len() == 0 {
		return nil, false
	}

	key, memoizable := cache.Shape(t, args)
	if memoizable {
		if idx, ok := r.memo.Get(key); ok {
			return thunkAt(entry, idx)
		}
	}

	idx := entry.Match(args)
	if memoizable {
		r.memo.Set(key, idx)
	}
	return thunkAt(entry, idx)
}

// Candidates returns the overloads of t in declaration order.
func (r *Resolver) Candidates(t reflect.Type) []cache.Overload {
	entry := r.types.GetOrBuild(t)
	out := make([]cache.Overload, len(entry.Overloads))
	copy(out, entry.Overloads)
	return out
}

// Types returns the underlying type cache.
func (r *Resolver) Types() *cache.TypeCache { return r.types }

// Memo returns the resolution memo, nil when disabled.
func (r *Resolver) Memo() *cache.Memo { return r.memo }

func thunkAt(entry *cache.Entry, idx int) (*thunk.Thunk, bool) {
	if idx == cache.NoMatch {
		return nil, false
	}
	return entry.Overloads[idx].Thunk, true
}

// Package booster constructs instances of runtime-selected types through
// cached, precompiled constructor thunks.
//
// Constructors are declared per type in a registry. The first request for a
// type builds its overload table once; afterwards each request only scans the
// table for the first overload whose parameters accept the arguments, and
// calls that overload's thunk.
//
//	booster.Declare(reflect.TypeFor[*User](), NewUser, thunk.Typed2(NewUserWithAge))
//
//	obj, err := booster.CreateInstance(reflect.TypeFor[*User](), "ann", 31)
//
//	// Resolve once, construct many times
//	factory, err := booster.CreateFactory(reflect.TypeFor[*User](), "sample", 0)
//	for _, row := range rows {
//	    u, err := factory.Invoke(row.Name, row.Age)
//	}
package booster

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/booster/cache"
	"github.com/Konsultn-Engineering/booster/config"
	"github.com/Konsultn-Engineering/booster/registry"
	"github.com/Konsultn-Engineering/booster/resolver"
	"github.com/Konsultn-Engineering/booster/thunk"
)

// Factory is a resolved constructor, reusable for any number of calls.
type Factory = thunk.Thunk

// Activator resolves and invokes constructors for a registry.
type Activator struct {
	// Configuration
	registry *registry.Registry
	logger   *zap.Logger
	memoSize int
	implicit bool
	onBuild  func(*cache.Entry)

	// configErr is a rejected WithConfig, reported once the logger is set.
	configErr error

	types    *cache.TypeCache
	resolver *resolver.Resolver
}

type Option func(*Activator)

// WithRegistry sets the constructor registry. Defaults to registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(a *Activator) { a.registry = r }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Activator) { a.logger = logger }
}

// WithMemoSize sets how many resolutions are memoized. Zero disables the memo.
func WithMemoSize(size int) Option {
	return func(a *Activator) { a.memoSize = size }
}

// WithImplicitConstructors enables or disables the zero-argument constructor
// of concrete types that have no declared constructors.
func WithImplicitConstructors(enabled bool) Option {
	return func(a *Activator) { a.implicit = enabled }
}

// WithBuildHook sets a callback run once for every overload table built.
func WithBuildHook(fn func(*cache.Entry)) Option {
	return func(a *Activator) { a.onBuild = fn }
}

// WithConfig applies a loaded configuration. An invalid configuration is
// ignored as a whole and reported as a warning by New.
func WithConfig(cfg *config.Config) Option {
	return func(a *Activator) {
		if cfg == nil {
			return
		}
		if err := cfg.Validate(); err != nil {
			a.configErr = err
			return
		}
		var logger *zap.Logger
		if cfg.LogLevel != "" {
			var err error
			if logger, err = cfg.Logger(); err != nil {
				a.configErr = err
				return
			}
		}
		a.memoSize = cfg.MemoSize
		a.implicit = cfg.ImplicitConstructors
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an activator.
func New(options ...Option) *Activator {
	a := &Activator{
		// Default configuration
		registry: registry.Default(),
		memoSize: config.DefaultMemoSize,
		implicit: true,
	}

	for _, opt := range options {
		opt(a)
	}
	if a.registry == nil {
		a.registry = registry.Default()
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.configErr != nil {
		a.logger.Warn("invalid configuration ignored", zap.Error(a.configErr))
	}

	a.types = cache.New(a.registry,
		cache.WithLogger(a.logger),
		cache.WithImplicit(a.implicit),
		cache.WithBuildHook(a.onBuild),
	)

	memo, err := cache.NewMemo(a.memoSize)
	if err != nil {
		a.logger.Warn("resolution memo disabled", zap.Int("size", a.memoSize), zap.Error(err))
	}
	a.resolver = resolver.New(a.types, memo)
	return a
}

// CreateInstance resolves the constructor of t that accepts args and calls
// it. A failed resolution returns an *UnresolvedOverloadError; a failure
// while converting arguments returns a *thunk.ConversionError.
func (a *Activator) CreateInstance(t reflect.Type, args ...any) (any, error) {
	th, ok := a.resolver.Resolve(t, args)
	if !ok {
		return nil, a.unresolved(t, args)
	}
	return th.Call(args)
}

// CreateFactory resolves the constructor of t against sample arguments and
// returns its thunk for direct reuse with arguments of the same shape.
func (a *Activator) CreateFactory(t reflect.Type, sample ...any) (*Factory, error) {
	th, ok := a.resolver.Resolve(t, sample)
	if !ok {
		return nil, a.unresolved(t, sample)
	}
	a.logger.Debug("factory resolved",
		zap.Stringer("type", t),
		zap.Stringer("signature", th.Signature()),
		zap.String("thunk", th.Name()),
	)
	return th, nil
}

// Declare adds constructors for t to the activator's registry.
func (a *Activator) Declare(t reflect.Type, ctors ...any) error {
	return a.registry.Declare(t, ctors...)
}

// Overloads returns the overload table of t, building it if needed.
func (a *Activator) Overloads(t reflect.Type) []cache.Overload {
	return a.resolver.Candidates(t)
}

// Stats reports cache and memo counters.
func (a *Activator) Stats() Stats {
	return Stats{
		Types:  a.types.Len(),
		Builds: a.types.Builds(),
		Memo:   a.resolver.Memo().Stats(),
	}
}

// Registry returns the activator's registry.
func (a *Activator) Registry() *registry.Registry { return a.registry }

// Stats is a snapshot of activator counters.
type Stats struct {
	Types  int
	Builds int64
	Memo   cache.MemoStats
}

func (a *Activator) unresolved(t reflect.Type, args []any) error {
	declared := 0
	if t != nil {
		declared = a.types.GetOrBuild(t).Len()
	}
	return newUnresolvedOverloadError(t, args, declared)
}

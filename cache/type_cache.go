// Package cache holds the per-type overload tables and the resolution memo.
//
// TypeCache builds the overload table of a type the first time the type is
// requested and serves it without locking afterwards. Tables are never
// evicted or rebuilt: memory grows with the number of distinct types seen.
package cache

import (
	"crypto/rand"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Konsultn-Engineering/booster/thunk"
)

// Source enumerates the declared constructors of a type.
type Source interface {
	Constructors(t reflect.Type) ([]thunk.Source, bool)
}

// Tracker is implemented by sources that can report declaration changes.
// TypeCache polls it to notice constructors declared after a table was built.
type Tracker interface {
	Generation() uint64
	Declarations(t reflect.Type) int
}

type noSource struct{}

func (noSource) Constructors(reflect.Type) ([]thunk.Source, bool) { return nil, false }

// TypeCache maps types to their overload tables.
type TypeCache struct {
	source  Source
	entries sync.Map // map[reflect.Type]*Entry
	group   singleflight.Group

	builds atomic.Int64
	size   atomic.Int64

	tracker Tracker
	seen    atomic.Uint64
	lateMu  sync.Mutex
	warned  map[reflect.Type]int // guarded by lateMu

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy

	// Configuration
	implicit bool
	onBuild  func(*Entry)
	logger   *zap.Logger
}

type Option func(*TypeCache)

// WithLogger sets the logger used for build and declaration events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *TypeCache) { c.logger = logger }
}

// WithImplicit enables or disables the zero-argument constructor of types
// without declarations.
func WithImplicit(enabled bool) Option {
	return func(c *TypeCache) { c.implicit = enabled }
}

// WithBuildHook sets a callback run once per built entry, before the entry is
// published.
func WithBuildHook(fn func(*Entry)) Option {
	return func(c *TypeCache) { c.onBuild = fn }
}

// New creates a cache over the given constructor source.
func New(source Source, options ...Option) *TypeCache {
	if source == nil {
		source = noSource{}
	}
	c := &TypeCache{
		source:   source,
		entropy:  ulid.Monotonic(rand.Reader, 0),
		implicit: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		opt(c)
	}
	if tr, ok := source.(Tracker); ok {
		c.tracker = tr
		c.warned = make(map[reflect.Type]int)
		c.seen.Store(tr.Generation())
	}
	return c
}

var emptyEntry = &Entry{}

// GetOrBuild returns the overload table of t, building it on first request.
// Concurrent first requests for the same type share a single build.
func (c *TypeCache) GetOrBuild(t reflect.Type) *Entry {
	if t == nil {
		return emptyEntry
	}
	if c.tracker != nil && c.tracker.Generation() != c.seen.Load() {
		c.reportLate()
	}

	// Fast path: no synchronization once the entry is published
	if e, ok := c.entries.Load(t); ok {
		return e.(*Entry)
	}

	// Slow path: one build per type, callers for other types are not blocked
	v, _, _ := c.group.Do(typeKey(t), func() (any, error) {
		// Double-check after entering the build section
		if e, ok := c.entries.Load(t); ok {
			return e, nil
		}
		e := c.build(t)
		c.entries.Store(t, e)
		c.size.Add(1)
		return e, nil
	})
	return v.(*Entry)
}

// Peek returns the entry of t without building it.
func (c *TypeCache) Peek(t reflect.Type) (*Entry, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := c.entries.Load(t)
	if !ok {
		return nil, false
	}
	return e.(*Entry), true
}

// Builds returns how many entries this cache has built.
func (c *TypeCache) Builds() int64 { return c.builds.Load() }

// Len returns the number of cached entries.
func (c *TypeCache) Len() int { return int(c.size.Load()) }

// reportLate logs every built type that gained declarations after its table
// was built. Those declarations are ignored by this cache. Each new count is
// reported once.
func (c *TypeCache) reportLate() {
	c.lateMu.Lock()
	defer c.lateMu.Unlock()

	gen := c.tracker.Generation()
	if gen == c.seen.Load() {
		return
	}
	c.seen.Store(gen)

	c.entries.Range(func(k, v any) bool {
		t, e := k.(reflect.Type), v.(*Entry)
		n := c.tracker.Declarations(t)
		if n <= e.Declared || n <= c.warned[t] {
			return true
		}
		c.warned[t] = n
		c.logger.Warn("constructor declared after overload table was built; ignored",
			zap.Stringer("type", t),
			zap.Int("declared", n),
			zap.Int("built_from", e.Declared),
			zap.Stringer("build_id", e.BuildID),
		)
		return true
	})
}

func (c *TypeCache) build(t reflect.Type) *Entry {
	start := time.Now()
	e := &Entry{
		Type:    t,
		BuildID: c.nextID(start),
		BuiltAt: start,
	}

	sources, declared := c.source.Constructors(t)
	switch {
	case declared:
		e.Declared = len(sources)
		e.Overloads = make([]Overload, 0, len(sources))
		for i, src := range sources {
			th, err := thunk.Build(t, src)
			if err != nil {
				c.logger.Warn("skipping constructor",
					zap.Stringer("type", t),
					zap.Int("index", i),
					zap.Error(err),
				)
				continue
			}
			e.Overloads = append(e.Overloads, Overload{Signature: th.Signature(), Thunk: th})
		}
	case c.implicit:
		if th, ok := thunk.Implicit(t); ok {
			e.Overloads = []Overload{{Signature: th.Signature(), Thunk: th}}
			e.Implicit = true
		}
	}

	if c.onBuild != nil {
		c.onBuild(e)
	}
	c.builds.Add(1)

	c.logger.Debug("built overload table",
		zap.Stringer("type", t),
		zap.Int("overloads", len(e.Overloads)),
		zap.Bool("implicit", e.Implicit),
		zap.Stringer("build_id", e.BuildID),
		zap.Duration("elapsed", time.Since(start)),
	)
	return e
}

func (c *TypeCache) nextID(now time.Time) ulid.ULID {
	c.entropyMu.Lock()
	defer c.entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(now), c.entropy)
	if err != nil {
		// Monotonic entropy overflowed within one millisecond.
		return ulid.Make()
	}
	return id
}

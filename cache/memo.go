package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memo remembers which overload index a (type, argument shape) resolved to.
// A miss only costs a scan of the entry, so records may be evicted freely;
// the entries themselves live in TypeCache and are never evicted.
//
// A nil *Memo is valid and remembers nothing.
type Memo struct {
	cache *lru.Cache[ShapeKey, int]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// MemoStats is a snapshot of memo counters.
type MemoStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Len       int
}

// NoMatch is the memoized index of a shape no overload accepts.
const NoMatch = -1

// NewMemo returns a memo holding up to size records. A size of zero or less
// disables memoization and returns nil.
func NewMemo(size int) (*Memo, error) {
	if size <= 0 {
		return nil, nil
	}

	m := &Memo{}
	cache, err := lru.NewWithEvict(size, func(ShapeKey, int) {
		m.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	m.cache = cache
	return m, nil
}

// Get returns the overload index recorded for key.
func (m *Memo) Get(key ShapeKey) (int, bool) {
	if m == nil {
		return 0, false
	}
	if idx, ok := m.cache.Get(key); ok {
		m.hits.Add(1)
		return idx, true
	}
	m.misses.Add(1)
	return 0, false
}

// Set records the overload index for key.
func (m *Memo) Set(key ShapeKey, idx int) {
	if m == nil {
		return
	}
	m.cache.Add(key, idx)
}

// Stats returns the current counters.
func (m *Memo) Stats() MemoStats {
	if m == nil {
		return MemoStats{}
	}
	return MemoStats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Len:       m.cache.Len(),
	}
}

// Purge drops every record.
func (m *Memo) Purge() {
	if m == nil {
		return
	}
	m.cache.Purge()
}

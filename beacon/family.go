package beacon

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Disposable is the minimal lifetime surface Family and Group manage; every
// cell type in this package (WritableCell, DerivedCell, Effect,
// AsyncDerivedCell) satisfies it via its Dispose method.
type Disposable interface{ Dispose() }

// Family is a keyed cache of cells, one per structurally-equal key, grounded on
// pkg/flimsy/types.go's use of xxhash to turn a symbol into a bucket id: here
// the key itself (any comparable-by-value Go type, typically a struct or
// primitive) is formatted with "%#v" and hashed the same way to pick a bucket,
// per spec.md §4.9.
type Family[K any, T Disposable] struct {
	rt          *Runtime
	factory     func(K) T
	shouldCache bool

	entries map[uint64]familyEntry[K, T]
}

type familyEntry[K any, T Disposable] struct {
	key K
	val T
}

// FamilyOption configures NewFamily.
type FamilyOption func(*familyConfig)

type familyConfig struct {
	shouldCache bool
}

// WithFamilyCache controls whether a key's cell is retained across Get calls
// (true, the default) or recreated fresh every time (false) — spec.md §4.9's
// shouldCache flag.
func WithFamilyCache(cache bool) FamilyOption {
	return func(c *familyConfig) { c.shouldCache = cache }
}

func NewFamily[K any, T Disposable](rt *Runtime, factory func(K) T, opts ...FamilyOption) *Family[K, T] {
	cfg := familyConfig{shouldCache: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Family[K, T]{
		rt:          rt,
		factory:     factory,
		shouldCache: cfg.shouldCache,
		entries:     map[uint64]familyEntry[K, T]{},
	}
}

func familyBucket(key any) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%#v", key))
}

// Get returns the cell for key, creating it via the factory on first access
// (or on every access, if shouldCache is false).
func (f *Family[K, T]) Get(key K) T {
	bucket := familyBucket(key)
	if f.shouldCache {
		if e, ok := f.entries[bucket]; ok {
			return e.val
		}
	}
	v := f.factory(key)
	if f.shouldCache {
		f.entries[bucket] = familyEntry[K, T]{key: key, val: v}
	}
	return v
}

// DisposeKey disposes and evicts the cell for key, if one exists.
func (f *Family[K, T]) DisposeKey(key K) {
	bucket := familyBucket(key)
	if e, ok := f.entries[bucket]; ok {
		e.val.Dispose()
		delete(f.entries, bucket)
	}
}

// DisposeAll disposes every cached cell and clears the cache.
func (f *Family[K, T]) DisposeAll() {
	for _, e := range f.entries {
		e.val.Dispose()
	}
	f.entries = map[uint64]familyEntry[K, T]{}
}

// Clear drops every cached entry without disposing the cells they hold, per
// spec.md §4.10 — for a host that has taken ownership of those cells
// elsewhere and only wants this Family to forget about them.
func (f *Family[K, T]) Clear() {
	f.entries = map[uint64]familyEntry[K, T]{}
}

// Len reports how many cells are currently cached.
func (f *Family[K, T]) Len() int {
	return len(f.entries)
}

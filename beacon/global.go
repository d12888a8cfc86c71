package beacon

import "time"

// defaultRuntime backs the package-level convenience entrypoints below, for
// callers who want a single ambient graph and don't need Runtime isolation.
// Nothing internal to the engine depends on this; it's purely a thin
// convenience layer, matching spec.md §6's package-level operations.
var defaultRuntime = NewRuntime()

// DefaultRuntime returns the shared runtime backing the package-level helpers.
func DefaultRuntime() *Runtime { return defaultRuntime }

func Writable[T any](initial T, opts ...CellOption[T]) *WritableCell[T] {
	return NewWritable(defaultRuntime, initial, opts...)
}

func LazyWritable[T any](opts ...CellOption[T]) *WritableCell[T] {
	return NewLazyWritable(defaultRuntime, opts...)
}

func Derived[T any](compute func() T, opts ...CellOption[T]) *DerivedCell[T] {
	return NewDerived(defaultRuntime, compute, opts...)
}

func RunEffect(body func(), opts ...EffectOption) (*Effect, func()) {
	return NewEffect(defaultRuntime, body, opts...)
}

// Batch defers notification of every write inside fn to a single pass at
// fn's return, on the default runtime.
func Batch(fn func()) { defaultRuntime.Batch(fn) }

// Untracked suppresses dependency recording for the duration of fn, on the
// default runtime.
func Untracked(fn func()) { defaultRuntime.Untracked(fn) }

// Flush synchronously drains the default runtime's scheduler queue.
func Flush() { defaultRuntime.Flush() }

// UseSync switches the default runtime's scheduler to ModeSync.
func UseSync() { defaultRuntime.UseSync() }

// UseAsync switches the default runtime's scheduler to ModeAsync.
func UseAsync() { defaultRuntime.UseAsync() }

// Settle waits, up to d, for the default runtime's scheduler queue to drain.
func Settle(d time.Duration) <-chan struct{} { return defaultRuntime.Settle(d) }

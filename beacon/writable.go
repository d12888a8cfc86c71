package beacon

// WritableCell is a root producer in the graph: a plain mutable value with an
// equality gate, written directly by the host and read (tracked or untracked)
// by everything downstream. Grounds reactively.go's plain Signal / pkg/flimsy's
// CreateSignal, generalized to spec.md §4.1's full write semantics (force,
// batching, untracked writes, reset, lazy-read).
type WritableCell[T any] struct {
	p     *Producer[T]
	lazy  bool
	wraps map[string]*Wrapper[T]
}

// CellOption configures cell construction across every cell type in this
// package — the idiomatic-Go rendering of spec.md §6's options-object configs.
type CellOption[T any] func(*cellConfig[T])

type cellConfig[T any] struct {
	name               string
	equal              func(a, b T) bool
	lazy               bool
	supportConditional bool
	shouldSleep        bool
}

// WithName attaches a diagnostic name, surfaced in CircularDependencyError and
// LazyReadError and used by DESIGN-documented tooling (cmd/beaconbench).
func WithName[T any](name string) CellOption[T] {
	return func(c *cellConfig[T]) { c.name = name }
}

// WithEqual overrides the default equality check (Equal(T) method if present,
// else reflect.DeepEqual) used by the write-gate described in spec.md §4.1.
func WithEqual[T any](eq func(a, b T) bool) CellOption[T] {
	return func(c *cellConfig[T]) { c.equal = eq }
}

// WithLazy marks a WritableCell as lazy: Value()/Peek() return ErrLazyRead
// until the first Set, per spec.md §4.1's lazy-read edge case.
func WithLazy[T any](lazy bool) CellOption[T] {
	return func(c *cellConfig[T]) { c.lazy = lazy }
}

// WithSupportConditional controls whether a DerivedCell re-tracks its
// dependency set on every run (true, the default) or freezes it after the
// first run (false), per spec.md §4.4. Effects take
// WithEffectSupportConditional instead.
func WithSupportConditional[T any](support bool) CellOption[T] {
	return func(c *cellConfig[T]) { c.supportConditional = support }
}

// WithSleep records the shouldSleep flag on a DerivedCell. A DerivedCell only
// recomputes when pulled, with or without the flag; the flag does not make it
// unsubscribe from its sources or drop its value when it has no dependents.
func WithSleep[T any](sleep bool) CellOption[T] {
	return func(c *cellConfig[T]) { c.shouldSleep = sleep }
}

func resolveConfig[T any](opts []CellOption[T]) cellConfig[T] {
	var c cellConfig[T]
	c.supportConditional = true
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewWritable constructs a WritableCell holding initial. Use WithLazy to
// instead defer the first value to a later Set call.
func NewWritable[T any](rt *Runtime, initial T, opts ...CellOption[T]) *WritableCell[T] {
	cfg := resolveConfig(opts)
	if cfg.name == "" {
		cfg.name = rt.anonName("writable")
	}
	p := newProducer[T](rt, cfg.name, cfg.equal)
	if cfg.lazy {
		return &WritableCell[T]{p: p, lazy: true}
	}
	w := &WritableCell[T]{p: p}
	p.acceptWrite(initial, true)
	return w
}

// NewLazyWritable constructs a WritableCell with no initial value; reads
// before the first Set return ErrLazyRead.
func NewLazyWritable[T any](rt *Runtime, opts ...CellOption[T]) *WritableCell[T] {
	cfg := resolveConfig(opts)
	if cfg.name == "" {
		cfg.name = rt.anonName("writable")
	}
	p := newProducer[T](rt, cfg.name, cfg.equal)
	return &WritableCell[T]{p: p, lazy: true}
}

// Value reads the current value, registering a dependency on the ambient
// consumer if one is running. Returns ErrLazyRead if this cell is lazy and has
// never been written.
func (w *WritableCell[T]) Value() (T, error) {
	if w.lazy && w.p.isEmpty {
		var zero T
		return zero, &LazyReadError{CellName: w.p.cellName()}
	}
	return w.p.recordReadAndGet(), nil
}

// Peek reads the current value without registering a dependency, per
// spec.md §4.1's peek() operation.
func (w *WritableCell[T]) Peek() (T, error) {
	if w.lazy && w.p.isEmpty {
		var zero T
		return zero, &LazyReadError{CellName: w.p.cellName()}
	}
	return w.p.peekValue(), nil
}

// PreviousValue returns the value held immediately before the most recent
// accepted write (spec.md §8 scenario S1's previousValue contract: updated
// synchronously on every accepted write, independent of batching/scheduling).
func (w *WritableCell[T]) PreviousValue() T { return w.p.previousValue }

// Set writes newVal, gated by equality (Force bypasses the gate). Notification is
// immediate unless the call happens inside Untracked (never notified) or
// inside Batch (deferred to the batch's exit).
func (w *WritableCell[T]) Set(newVal T) { w.write(newVal, false) }

// Force writes newVal unconditionally, bypassing the equality gate, per
// spec.md §4.1's force() operation.
func (w *WritableCell[T]) Force(newVal T) { w.write(newVal, true) }

func (w *WritableCell[T]) write(newVal T, force bool) {
	w.p.checkCircular()
	rt := w.p.base.rt
	changed := w.p.acceptWrite(newVal, force)
	w.lazy = false
	if !changed || w.p.base.disposed {
		return
	}
	switch {
	case rt.tracking.untrackedDepth > 0:
		return
	case rt.tracking.batchDepth > 0:
		rt.tracking.deferNotify(w.p)
	default:
		w.p.notify()
	}
}

// Reset writes this cell back to its initialValue — spec.md §4.3's
// "reset() equals set(initialValue)". Returns ErrUninitialized if the cell
// was never written in the first place, since there is no initialValue to
// restore.
func (w *WritableCell[T]) Reset() error {
	if w.p.isEmpty {
		return ErrUninitialized
	}
	w.Set(w.p.initialValue)
	return nil
}

// Subscribe registers cb to run whenever this cell's value changes, per
// spec.md §6's subscribe(callback, startNow?, synchronous?). Returns a
// disposer that removes the registration.
func (w *WritableCell[T]) Subscribe(cb func(T), startNow, synchronous bool) func() {
	return w.p.subscribe(cb, startNow, synchronous)
}

// Dispose clears every listener, resets the value to initialValue, and runs
// dispose hooks, per spec.md §3. Further writes remain legal but produce no
// notifications. Idempotent.
func (w *WritableCell[T]) Dispose() {
	for _, wr := range w.wraps {
		wr.Unwrap()
	}
	w.p.disposeProducer()
	w.lazy = true
}

// Name returns this cell's diagnostic name.
func (w *WritableCell[T]) Name() string { return w.p.cellName() }

// IsEmpty reports whether this cell has never been written, per spec.md §6.
func (w *WritableCell[T]) IsEmpty() bool { return w.p.IsEmpty() }

// ListenersCount reports the number of active Subscribe registrations, per
// spec.md §6.
func (w *WritableCell[T]) ListenersCount() int { return w.p.ListenersCount() }

// OnDispose registers fn to run when this cell is disposed, per spec.md §6.
func (w *WritableCell[T]) OnDispose(fn func()) { w.p.OnDispose(fn) }

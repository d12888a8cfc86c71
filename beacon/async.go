package beacon

import "context"

// AsyncStatus is the tag of the AsyncValue union, naming conventions grounded
// on other_examples' sig package (StatusPending/StatusError/StatusUninitialized)
// adapted to this runtime's Idle/Loading/Data/Error vocabulary (spec.md §3).
type AsyncStatus int

const (
	AsyncIdle AsyncStatus = iota
	AsyncLoading
	AsyncData
	AsyncError
)

func (s AsyncStatus) String() string {
	switch s {
	case AsyncIdle:
		return "idle"
	case AsyncLoading:
		return "loading"
	case AsyncData:
		return "data"
	case AsyncError:
		return "error"
	default:
		return "unknown"
	}
}

// AsyncValue is the tagged union an AsyncDerivedCell holds, per spec.md §3:
// exactly one of Value/Err is meaningful depending on Status, and Previous
// carries the last settled (Data or Error) value forward through a Loading
// state so a consumer can render stale-while-revalidate UIs without losing the
// old value the instant a refetch starts.
type AsyncValue[T any] struct {
	Status   AsyncStatus
	Value    T
	Err      error
	Previous *AsyncValue[T]
}

func AsyncIdleValue[T any]() AsyncValue[T] { return AsyncValue[T]{Status: AsyncIdle} }

func AsyncLoadingValue[T any](previous *AsyncValue[T]) AsyncValue[T] {
	return AsyncValue[T]{Status: AsyncLoading, Previous: previous}
}

func AsyncDataValue[T any](v T, previous *AsyncValue[T]) AsyncValue[T] {
	return AsyncValue[T]{Status: AsyncData, Value: v, Previous: previous}
}

func AsyncErrorValue[T any](err error, previous *AsyncValue[T]) AsyncValue[T] {
	return AsyncValue[T]{Status: AsyncError, Err: err, Previous: previous}
}

func (v AsyncValue[T]) IsIdle() bool    { return v.Status == AsyncIdle }
func (v AsyncValue[T]) IsLoading() bool { return v.Status == AsyncLoading }
func (v AsyncValue[T]) IsData() bool    { return v.Status == AsyncData }
func (v AsyncValue[T]) IsError() bool   { return v.Status == AsyncError }

// LastData walks Previous until it finds the most recent settled Data value,
// for rendering the old result while a refetch is Loading or has errored.
func (v AsyncValue[T]) LastData() (T, bool) {
	for cur := &v; cur != nil; cur = cur.Previous {
		if cur.Status == AsyncData {
			return cur.Value, true
		}
	}
	var zero T
	return zero, false
}

// AsyncDerivedCell combines a tracked, synchronous "source" read with an
// untracked, asynchronous "fetch" over that source, per spec.md §4.6. Splitting
// the two is the idiomatic-Go answer to the JS/Dart original's single
// async-function-with-implicit-await-boundary: source() is always cheap and
// synchronous (it is what establishes the dependency set), while fetch runs on
// its own goroutine and reports back under the runtime's mutex with latest-wins
// cancellation, grounded on rocket's generation-counter dedup applied to async
// results instead of sync recomputes.
type AsyncDerivedCell[T, S any] struct {
	p *Producer[AsyncValue[T]]
	c *consumerBase

	source func() S
	fetch  func(ctx context.Context, src S) (T, error)

	hasSrc        bool
	lastSrc       S
	srcEqual      func(a, b S) bool
	gen           uint64
	cancelPrev    context.CancelFunc
	manualStart   bool
	cancelRunning bool
	started       bool
}

// AsyncDerivedOption configures NewAsyncDerived, the async-specific superset of
// CellOption: besides name/equal it carries manualStart and cancelRunning, per
// spec.md §4.6's external controls over the fetch lifecycle.
type AsyncDerivedOption[T any] func(*asyncDerivedConfig[T])

type asyncDerivedConfig[T any] struct {
	cell          cellConfig[AsyncValue[T]]
	manualStart   bool
	cancelRunning bool
}

// WithAsyncName attaches a diagnostic name.
func WithAsyncName[T any](name string) AsyncDerivedOption[T] {
	return func(c *asyncDerivedConfig[T]) { c.cell.name = name }
}

// WithAsyncEqual overrides the default AsyncValue equality check.
func WithAsyncEqual[T any](eq func(a, b AsyncValue[T]) bool) AsyncDerivedOption[T] {
	return func(c *asyncDerivedConfig[T]) { c.cell.equal = eq }
}

// WithManualStart prevents the cell from fetching on its own the first time
// it's pulled; the host must call Start() or Run() explicitly, per
// spec.md §4.6's manualStart knob.
func WithManualStart[T any](manual bool) AsyncDerivedOption[T] {
	return func(c *asyncDerivedConfig[T]) { c.manualStart = manual }
}

// WithCancelRunning controls whether a source change cancels an in-flight
// fetch (the default) or lets it run to completion alongside the new one,
// per spec.md §4.6.
func WithCancelRunning[T any](cancel bool) AsyncDerivedOption[T] {
	return func(c *asyncDerivedConfig[T]) { c.cancelRunning = cancel }
}

// NewAsyncDerived constructs an AsyncDerivedCell. source is read synchronously
// and tracked like a DerivedCell's compute; whenever it produces a new value
// (by srcEqual, defaulting to reflect-based equality), any in-flight fetch is
// cancelled and a new one is started with fetch(ctx, newSrc), unless
// WithManualStart was given, in which case the first fetch waits for an
// explicit Start() or Run().
func NewAsyncDerived[T, S any](rt *Runtime, source func() S, fetch func(ctx context.Context, src S) (T, error), opts ...AsyncDerivedOption[T]) *AsyncDerivedCell[T, S] {
	cfg := asyncDerivedConfig[T]{cancelRunning: true}
	cfg.cell.supportConditional = true
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cell.name == "" {
		cfg.cell.name = rt.anonName("async-derived")
	}
	a := &AsyncDerivedCell[T, S]{
		p:             newProducer[AsyncValue[T]](rt, cfg.cell.name, cfg.cell.equal),
		source:        source,
		fetch:         fetch,
		srcEqual:      defaultEqual[S],
		manualStart:   cfg.manualStart,
		cancelRunning: cfg.cancelRunning,
		started:       !cfg.manualStart,
	}
	a.p.acceptWrite(AsyncIdleValue[T](), true)
	a.c = newConsumerBase(rt, cfg.cell.name, cfg.cell.supportConditional, false)
	a.c.notifyObservers = func(state cacheState) { a.p.base.pushStale(state) }
	a.c.run = func() bool {
		if a.manualStart && !a.started {
			return false
		}
		return a.runOnce()
	}
	return a
}

// Status reports the current AsyncStatus without forcing a pending source
// change to resolve, per spec.md §6's status() diagnostic.
func (a *AsyncDerivedCell[T, S]) Status() AsyncStatus { return a.p.value.Status }

// Start triggers the first fetch for a cell constructed with WithManualStart,
// then behaves like any other pull. A no-op once already started.
func (a *AsyncDerivedCell[T, S]) Start() {
	if a.started {
		return
	}
	a.started = true
	a.c.state = stateDirty
	a.c.updateIfNecessary()
}

// Run forces a fetch unconditionally, bypassing the source-equality gate that
// normally skips re-fetching an unchanged source, per spec.md §4.6.
func (a *AsyncDerivedCell[T, S]) Run() {
	a.started = true
	a.hasSrc = false
	a.c.state = stateDirty
	a.c.updateIfNecessary()
}

// runOnce is the tracked body: it reads source(), and if that produced a
// genuinely new value, cancels any in-flight fetch (unless cancelRunning is
// false), moves the cell to Loading, and launches the new fetch on its own
// goroutine.
func (a *AsyncDerivedCell[T, S]) runOnce() bool {
	src := a.source()
	if a.hasSrc && a.srcEqual(a.lastSrc, src) {
		return false
	}
	a.hasSrc = true
	a.lastSrc = src

	if a.cancelRunning && a.cancelPrev != nil {
		a.cancelPrev()
	}
	a.gen++
	myGen := a.gen
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelPrev = cancel

	prev := a.p.value
	changed := a.p.acceptWrite(AsyncLoadingValue(&prev), true)

	rt := a.p.base.rt
	go func() {
		val, err := a.fetch(ctx, src)
		rt.RunExclusive(func() {
			if myGen != a.gen || a.c.disposed {
				return // superseded by a later source change, or disposed; discard
			}
			settledPrev := a.p.value
			var didChange bool
			if err != nil {
				didChange = a.p.acceptWrite(AsyncErrorValue[T](err, &settledPrev), true)
			} else {
				didChange = a.p.acceptWrite(AsyncDataValue(val, &settledPrev), true)
			}
			if didChange {
				a.p.base.pushStale(stateDirty)
				a.p.fireListeners()
			}
		})
	}()

	return changed
}

func (a *AsyncDerivedCell[T, S]) cellName() string    { return a.p.cellName() }
func (a *AsyncDerivedCell[T, S]) isDisposed() bool    { return a.c.disposed }
func (a *AsyncDerivedCell[T, S]) dependentCount() int { return a.p.dependentCount() }
func (a *AsyncDerivedCell[T, S]) addDependent(c consumerNode) {
	a.p.addDependent(c)
}
func (a *AsyncDerivedCell[T, S]) removeDependent(c consumerNode) {
	a.p.removeDependent(c)
}
func (a *AsyncDerivedCell[T, S]) ensureFresh() bool { return a.c.updateIfNecessary() }

// Value resolves any pending source-level staleness (starting a new fetch if
// the source changed) and returns the current AsyncValue, registering a
// dependency on the ambient consumer. Note this does not block on the fetch:
// a freshly-started fetch is observed as AsyncLoading immediately.
func (a *AsyncDerivedCell[T, S]) Value() AsyncValue[T] {
	a.c.updateIfNecessary()
	a.p.base.rt.tracking.recordRead(a)
	return a.p.value
}

func (a *AsyncDerivedCell[T, S]) Peek() AsyncValue[T] {
	a.c.updateIfNecessary()
	return a.p.value
}

func (a *AsyncDerivedCell[T, S]) Subscribe(cb func(AsyncValue[T]), startNow, synchronous bool) func() {
	return a.p.subscribe(cb, startNow, synchronous)
}

// Dispose cancels any in-flight fetch and detaches this cell from the graph.
func (a *AsyncDerivedCell[T, S]) Dispose() {
	if a.cancelPrev != nil {
		a.cancelPrev()
	}
	a.c.dispose()
	a.p.disposeProducer()
}

func (a *AsyncDerivedCell[T, S]) Name() string { return a.p.cellName() }

// IsEmpty reports whether this cell holds no value, per spec.md §6. The cell
// holds AsyncIdle from construction, so this is false until it is disposed;
// it does not report whether a fetch has settled.
func (a *AsyncDerivedCell[T, S]) IsEmpty() bool { return a.p.IsEmpty() }

// ListenersCount reports the number of active Subscribe registrations, per
// spec.md §6.
func (a *AsyncDerivedCell[T, S]) ListenersCount() int { return a.p.ListenersCount() }

// OnDispose registers fn to run when this cell is disposed, per spec.md §6.
func (a *AsyncDerivedCell[T, S]) OnDispose(fn func()) { a.p.OnDispose(fn) }

package beacon

// DerivedCell is a lazily-recomputed producer that is also a consumer of
// whatever it reads during compute, ported from reactively.go's Computed /
// pkg/flimsy's createMemo, generalized to spec.md §4.4: dynamic (unbounded
// arity) dependency discovery, equality-gated propagation of its own output,
// and two configurable behaviours — supportConditional (re-track every run vs.
// freeze after the first) and shouldSleep (skip eager work while unwatched,
// which for a purely pull-driven cell like this one is already the default,
// since nothing runs until a Value()/Peek() pulls it).
type DerivedCell[T any] struct {
	p *Producer[T]
	c *consumerBase

	compute     func() T
	shouldSleep bool
}

// NewDerived constructs a DerivedCell whose value is recomputed by compute
// whenever one of its dynamically-discovered dependencies actually changes.
func NewDerived[T any](rt *Runtime, compute func() T, opts ...CellOption[T]) *DerivedCell[T] {
	cfg := resolveConfig(opts)
	if cfg.name == "" {
		cfg.name = rt.anonName("derived")
	}
	d := &DerivedCell[T]{
		p:           newProducer[T](rt, cfg.name, cfg.equal),
		compute:     compute,
		shouldSleep: cfg.shouldSleep,
	}
	d.c = newConsumerBase(rt, cfg.name, cfg.supportConditional, false)
	d.c.notifyObservers = func(state cacheState) { d.p.base.pushStale(state) }
	d.c.run = func() bool { return d.p.acceptWrite(d.compute(), false) }
	d.c.onSettled = func(changed bool) {
		if changed {
			d.p.fireListeners()
		}
	}
	return d
}

func (d *DerivedCell[T]) cellName() string            { return d.p.cellName() }
func (d *DerivedCell[T]) isDisposed() bool            { return d.c.disposed }
func (d *DerivedCell[T]) dependentCount() int         { return d.p.dependentCount() }
func (d *DerivedCell[T]) addDependent(c consumerNode) { d.p.addDependent(c) }
func (d *DerivedCell[T]) removeDependent(c consumerNode) {
	d.p.removeDependent(c)
}

// ensureFresh resolves this derived cell's own staleness (running compute if
// the pull chain determines it's actually Dirty) and reports whether the
// recompute produced a new value, the hook a dependent consumer's
// updateIfNecessary uses while walking its sources.
func (d *DerivedCell[T]) ensureFresh() bool { return d.c.updateIfNecessary() }

// Value resolves any pending staleness, recomputing if necessary, and returns
// the current value, registering a dependency on the ambient consumer.
func (d *DerivedCell[T]) Value() T {
	d.c.updateIfNecessary()
	d.p.base.rt.tracking.recordRead(d)
	return d.p.value
}

// Peek resolves staleness like Value but does not register a dependency.
func (d *DerivedCell[T]) Peek() T {
	d.c.updateIfNecessary()
	return d.p.value
}

// PreviousValue returns the value held before the most recent recompute that
// actually changed it.
func (d *DerivedCell[T]) PreviousValue() T {
	return d.p.previousValue
}

// Subscribe registers cb to run whenever this derived cell's resolved value
// changes. Subscribing does not itself force a recompute; it only observes
// whatever recomputes happen as a side effect of something pulling this cell
// or of Check propagation reaching a scheduled consumer further downstream.
func (d *DerivedCell[T]) Subscribe(cb func(T), startNow, synchronous bool) func() {
	return d.p.subscribe(cb, startNow, synchronous)
}

// Dispose detaches this cell from its sources and from its own dependents,
// then clears its listeners and resets its value to initialValue, per
// spec.md §3.
func (d *DerivedCell[T]) Dispose() {
	d.c.dispose()
	d.p.disposeProducer()
}

func (d *DerivedCell[T]) Name() string { return d.p.cellName() }

// IsEmpty reports whether this cell has never resolved a value, per spec.md §6.
func (d *DerivedCell[T]) IsEmpty() bool { return d.p.IsEmpty() }

// ListenersCount reports the number of active Subscribe registrations, per
// spec.md §6.
func (d *DerivedCell[T]) ListenersCount() int { return d.p.ListenersCount() }

// OnDispose registers fn to run when this cell is disposed, per spec.md §6.
func (d *DerivedCell[T]) OnDispose(fn func()) { d.p.OnDispose(fn) }

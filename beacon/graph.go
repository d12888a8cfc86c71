package beacon

// cacheState is the three-state push/pull scheme every consumer in the graph
// carries, ported from reactively.go's CacheClean/CacheCheck/CacheDirty: a write
// pushes CacheDirty one hop, CacheCheck further downstream (a dependency changed,
// but whether *this* consumer's output changes is still unknown), and pulling a
// value resolves Check by walking sources until either a real Dirty is found or
// every source reports unchanged, at which point the consumer settles back to
// Clean without re-running its body.
type cacheState uint8

const (
	stateClean cacheState = iota
	stateCheck
	stateDirty
)

// producerNode is the value-agnostic bookkeeping surface every producer (writable
// cell, derived cell, time-operator cell, ...) exposes to the graph, grounded on
// rocket.Cell / reactively.HasReactivity: dependency tracking needs to hold
// heterogeneous producers of different T in one slice, so the non-generic parts
// of a *Producer[T] are lifted into this interface.
type producerNode interface {
	addDependent(c consumerNode)
	removeDependent(c consumerNode)
	dependentCount() int
	cellName() string
	isDisposed() bool

	// ensureFresh asks a producer that might itself be stale (i.e. a derived
	// cell) to resolve its own staleness before a dependent consults it, and
	// reports whether doing so produced a new externally-visible value. Plain
	// writable-shaped producers are always fresh and return false.
	ensureFresh() (changed bool)
}

// consumerNode is the value-agnostic bookkeeping surface every consumer (derived
// cell, effect, async derived's internal runner, plain non-synchronous
// subscriptions) exposes so a producer can push staleness without knowing the
// consumer's concrete type.
type consumerNode interface {
	markStale(state cacheState)
	isDisposed() bool
	cellName() string
}

// consumerBase implements the shared dependency-tracking, diffing, and
// three-state push/pull algorithm used by DerivedCell, Effect, and the internal
// runner inside AsyncDerivedCell and non-synchronous Subscribe callbacks. It
// intentionally holds no value of its own — the owner supplies `run`, which
// performs the typed recompute and reports whether the owner's externally visible
// value changed.
type consumerBase struct {
	rt   *Runtime
	name string

	state   cacheState
	sources []producerNode

	supportConditional bool
	hasRunOnce         bool
	running            bool // re-entrancy guard; set while `run` executes, grounds dumbdumb's "computing" cycle check
	disposed           bool
	queued             bool // scheduler dedup: true while this consumer sits in the scheduler's queue

	// isScheduled is true for nodes the Scheduler drives (Effects,
	// non-synchronous plain subscriptions) and false for DerivedCell and the
	// runner backing AsyncDerivedCell, which are pulled lazily instead of
	// pushed through the scheduler: a source change only marks them stale,
	// and the next Value()/Peek() re-runs them.
	isScheduled bool

	// disposeHooks run once, in registration order, when dispose() fires.
	// Effect has no Producer of its own, so this is where its OnDispose
	// hooks live (spec.md §6).
	disposeHooks []func()

	// run performs the owner's recompute/re-run and reports whether the
	// owner's externally visible output changed as a result.
	run func() bool

	// notifyObservers propagates a Check to whatever is downstream of this
	// consumer. Set for DerivedCell and AsyncDerivedCell (which are also
	// producers); nil for pure consumers (Effect, subscriptions) that have no
	// downstream.
	notifyObservers func(cacheState)

	// onSettled fires after run() actually executes (state was Dirty), with
	// whether it changed the owner's externally visible value. DerivedCell
	// uses this to fire its own Subscribe listeners at the moment a pull
	// resolves a real change, since it never goes through Producer.notify().
	onSettled func(changed bool)
}

func newConsumerBase(rt *Runtime, name string, supportConditional, isScheduled bool) *consumerBase {
	return &consumerBase{
		rt:                 rt,
		name:               name,
		state:              stateDirty,
		supportConditional: supportConditional,
		isScheduled:        isScheduled,
	}
}

func (c *consumerBase) cellName() string  { return c.name }
func (c *consumerBase) isDisposed() bool  { return c.disposed }
func (c *consumerBase) ensureFresh() bool { return c.updateIfNecessary() }

func (c *consumerBase) addDisposeHook(fn func()) {
	c.disposeHooks = append(c.disposeHooks, fn)
}

// markStale is called by a dependency (push phase) or by a producer notifying a
// subscription/effect directly. It escalates this consumer's state, propagates
// Check to anything downstream, and — only for scheduler-driven consumers — pushes
// itself onto the Scheduler's FIFO queue, deduplicated by identity via `queued`.
func (c *consumerBase) markStale(state cacheState) {
	if c.disposed || c.state >= state {
		return
	}
	c.state = state
	if c.notifyObservers != nil {
		c.notifyObservers(stateCheck)
	}
	if c.isScheduled && !c.queued {
		c.queued = true
		c.rt.scheduler.enqueue(c)
	}
}

// updateIfNecessary resolves a Check by consulting sources (recursively resolving
// their own staleness first, stopping at the first real change exactly like
// reactively.go's updateIfNecessary), then, if still/now Dirty, invokes `run`.
// Returns whether the owner's value actually changed as a result of this call.
func (c *consumerBase) updateIfNecessary() bool {
	if c.state == stateCheck {
		for _, src := range c.sources {
			if src.ensureFresh() {
				c.state = stateDirty
				break
			}
		}
	}

	changed := false
	if c.state == stateDirty {
		changed = c.runGuarded()
		if c.onSettled != nil {
			c.onSettled(changed)
		}
	}
	c.state = stateClean
	return changed
}

// runGuarded invokes run() with the circular-dependency re-entrancy guard and the
// dependency-tracking frame pushed/popped around it.
func (c *consumerBase) runGuarded() bool {
	if c.running {
		panic(&CircularDependencyError{ConsumerName: c.name})
	}
	c.running = true
	c.queued = false
	defer func() { c.running = false }()

	if !c.hasRunOnce || c.supportConditional {
		return c.runTracked()
	}
	// supportConditional == false and we've already established a dependency
	// set: skip tracking entirely, run the body without registering reads, and
	// keep the first run's sources untouched (spec.md §4.4).
	var changed bool
	c.rt.tracking.runUntracked(func() { changed = c.run() })
	return changed
}

// runTracked runs the body with this consumer as the ambient "current consumer",
// records every producer read during the run, diffs that set against the
// previous dependency set, and updates subscriptions accordingly.
func (c *consumerBase) runTracked() bool {
	frame := c.rt.tracking.pushFrame(c)
	changed := c.run()
	reads := c.rt.tracking.popFrame(frame)
	c.hasRunOnce = true
	c.diffSources(reads)
	return changed
}

func (c *consumerBase) diffSources(reads []producerNode) {
	oldSet := make(map[producerNode]struct{}, len(c.sources))
	for _, s := range c.sources {
		oldSet[s] = struct{}{}
	}
	newSet := make(map[producerNode]struct{}, len(reads))
	for _, r := range reads {
		newSet[r] = struct{}{}
	}

	for _, s := range c.sources {
		if _, stillThere := newSet[s]; !stillThere {
			s.removeDependent(c)
		}
	}
	for _, r := range reads {
		if _, wasThere := oldSet[r]; !wasThere {
			r.addDependent(c)
		}
	}
	c.sources = reads
}

// dispose unsubscribes this consumer from every source it currently holds and
// marks it disposed, making further markStale calls (and further scheduler
// drains) no-ops. Idempotent.
func (c *consumerBase) dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	for _, s := range c.sources {
		s.removeDependent(c)
	}
	c.sources = nil
	hooks := c.disposeHooks
	c.disposeHooks = nil
	for _, fn := range hooks {
		fn()
	}
}

package beacon

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// producerBase is the value-agnostic half of every producer: the dependents set
// (internal graph edges, pointer-identity, grounded on pkg/flimsy/observer.go's
// mapset.Set[*observer]) plus the dispose hooks. Producer[T] embeds this and
// adds the typed value/equality machinery and the external listener registry.
type producerBase struct {
	rt   *Runtime
	name string

	dependents mapset.Set[consumerNode]

	disposeHooks []func()
	disposed     bool
}

func newProducerBase(rt *Runtime, name string) producerBase {
	return producerBase{rt: rt, name: name, dependents: mapset.NewThreadUnsafeSet[consumerNode]()}
}

func (b *producerBase) cellName() string               { return b.name }
func (b *producerBase) isDisposed() bool               { return b.disposed }
func (b *producerBase) dependentCount() int             { return b.dependents.Cardinality() }
func (b *producerBase) addDependent(c consumerNode)     { b.dependents.Add(c) }
func (b *producerBase) removeDependent(c consumerNode) { b.dependents.Remove(c) }

// pushStale marks every direct dependent with state, the push half of the
// three-state algorithm (the pull half, ensureFresh, lives on whichever
// producer type is also a consumer).
func (b *producerBase) pushStale(state cacheState) {
	for _, c := range b.dependents.ToSlice() {
		c.markStale(state)
	}
}

func (b *producerBase) addDisposeHook(fn func()) {
	b.disposeHooks = append(b.disposeHooks, fn)
}

func (b *producerBase) runDisposeHooks() {
	hooks := b.disposeHooks
	b.disposeHooks = nil
	for _, fn := range hooks {
		fn()
	}
}

// subscription is one external Subscribe registration. Synchronous
// subscriptions are invoked directly from notify(); non-synchronous ones carry
// their own *consumerBase so they ride the same Scheduler FIFO as an Effect,
// which is what gives them spec.md §8's "k writes, one callback after the
// microtask turn" dedup behaviour for free.
type subscription[T any] struct {
	synchronous bool
	consumer    *consumerBase // nil when synchronous
}

// Producer[T] is the generic, value-carrying half of every cell in the graph:
// the current/previous value, the equality gate, and the external listener
// registry. WritableCell and DerivedCell both embed one.
type Producer[T any] struct {
	base producerBase

	value         T
	previousValue T
	initialValue  T // captured at the first accepted write; what Reset/Dispose restore, per spec.md §3
	isEmpty       bool

	equal        func(a, b T) bool
	listeners    *listenerRegistry[T]
	subs         map[uint64]*subscription[T]
	subsOrder    []uint64
	subHandleSeq uint64
}

func newProducer[T any](rt *Runtime, name string, equal func(a, b T) bool) *Producer[T] {
	if equal == nil {
		equal = defaultEqual[T]
	}
	return &Producer[T]{
		base:      newProducerBase(rt, name),
		isEmpty:   true,
		equal:     equal,
		listeners: newListenerRegistry[T](),
		subs:      map[uint64]*subscription[T]{},
	}
}

func (p *Producer[T]) cellName() string           { return p.base.cellName() }
func (p *Producer[T]) isDisposed() bool           { return p.base.isDisposed() }
func (p *Producer[T]) dependentCount() int        { return p.base.dependentCount() }
func (p *Producer[T]) addDependent(c consumerNode) { p.base.addDependent(c) }
func (p *Producer[T]) removeDependent(c consumerNode) { p.base.removeDependent(c) }

// ensureFresh is false for a bare Producer[T]: plain producers are never
// themselves stale, they are the source of staleness. DerivedCell overrides
// this at its own type (it does not embed Producer[T]'s ensureFresh directly —
// see derived.go).
func (p *Producer[T]) ensureFresh() bool { return false }

// recordReadAndGet registers the current consumer's dependency on p (unless
// untracked) and returns the current value: the tail end of
// WritableCell.Value. Peek-shaped reads use peekValue instead.
func (p *Producer[T]) recordReadAndGet() T {
	p.base.rt.tracking.recordRead(p)
	return p.value
}

// peekValue returns the current value without recording a dependency.
func (p *Producer[T]) peekValue() T { return p.value }

// acceptWrite applies the equality gate and updates value/previousValue/isEmpty
// in place, synchronously, regardless of batching — batching only defers the
// notify, never the write itself (spec.md §4.1, and §8 scenario S1's
// previousValue contract).
func (p *Producer[T]) acceptWrite(newVal T, force bool) bool {
	if !force && !p.isEmpty && p.equal(p.value, newVal) {
		return false
	}
	if p.isEmpty {
		p.initialValue = newVal
	}
	p.previousValue = p.value
	p.value = newVal
	p.isEmpty = false
	return true
}

// checkCircular panics with CircularDependencyError if the consumer
// currently running on this producer's runtime is already one of p's
// dependents — writing a producer you depend on from inside your own run is
// a cycle regardless of scheduler mode, per spec.md §4.1.
func (p *Producer[T]) checkCircular() {
	cur := p.base.rt.tracking.current()
	if cur == nil {
		return
	}
	if p.base.dependents.Contains(cur) {
		panic(&CircularDependencyError{ConsumerName: cur.cellName()})
	}
}

// IsEmpty reports whether this producer has never accepted a write, or has
// been disposed (which resets it to that state), per spec.md §6's isEmpty.
func (p *Producer[T]) IsEmpty() bool { return p.isEmpty }

// ListenersCount reports how many external Subscribe registrations, both
// synchronous and scheduled, are currently active, per spec.md §6.
func (p *Producer[T]) ListenersCount() int { return p.listeners.len() + len(p.subs) }

// OnDispose registers fn to run when this producer is disposed, per
// spec.md §6's onDispose(hook).
func (p *Producer[T]) OnDispose(fn func()) { p.base.addDisposeHook(fn) }

// disposeProducer clears every listener, resets the value to initialValue,
// and marks the producer disposed — the shared half of every cell type's
// Dispose, per spec.md §3's "after dispose: listener set is empty; v is
// reset to initialValue; further notifications never fire."
func (p *Producer[T]) disposeProducer() {
	if p.base.disposed {
		return
	}
	p.base.disposed = true
	p.listeners.clear()
	for _, sub := range p.subs {
		sub.consumer.dispose()
	}
	p.subs = map[uint64]*subscription[T]{}
	p.subsOrder = nil
	p.value = p.initialValue
	p.isEmpty = true
	p.base.runDisposeHooks()
}

// notify pushes Dirty to every dependent and fires every external listener,
// synchronous listeners directly and non-synchronous ones via the Scheduler.
// Called either immediately after a write (untracked depth == 0, batch depth
// == 0) or once per batch at the outermost batch's exit.
func (p *Producer[T]) notify() {
	p.base.pushStale(stateDirty)
	p.fireListeners()
}

// fireListeners runs every external Subscribe registration for the current
// value, without touching the internal dependents graph — the half of notify
// that DerivedCell also needs at the moment a pull resolves a real change,
// since it reaches its dependents via the push phase instead (notifyObservers).
func (p *Producer[T]) fireListeners() {
	for _, h := range p.subsOrder {
		if sub, ok := p.subs[h]; ok {
			sub.consumer.markStale(stateDirty)
		}
	}
	p.listeners.each(func(cb func(T)) {
		cb(p.value)
	})
}

// subscribe registers cb per spec.md §6's subscribe(callback, startNow?,
// synchronous?). Non-synchronous subscriptions are modeled as a tiny scheduled
// consumer so repeated writes within one scheduler turn coalesce into a single
// callback invocation, exactly like an Effect.
func (p *Producer[T]) subscribe(cb func(T), startNow, synchronous bool) func() {
	var disposer func()
	if synchronous {
		handle := p.listeners.add(cb)
		disposer = func() { p.listeners.remove(handle) }
	} else {
		cons := newConsumerBase(p.base.rt, p.base.name+".subscription", false, true)
		// Starts Clean so the first markStale(stateDirty) enqueues it.
		cons.state = stateClean
		cons.run = func() bool {
			cb(p.value)
			return false
		}
		handle := p.nextSubHandle()
		p.subs[handle] = &subscription[T]{synchronous: false, consumer: cons}
		p.subsOrder = append(p.subsOrder, handle)
		disposer = func() {
			if sub, ok := p.subs[handle]; ok {
				sub.consumer.dispose()
				delete(p.subs, handle)
				for i, id := range p.subsOrder {
					if id == handle {
						p.subsOrder = append(p.subsOrder[:i], p.subsOrder[i+1:]...)
						break
					}
				}
			}
		}
	}
	if startNow {
		cb(p.value)
	}
	return disposer
}

func (p *Producer[T]) nextSubHandle() uint64 {
	p.subHandleSeq++
	return p.subHandleSeq
}

func defaultEqual[T any](a, b T) bool {
	type comparer interface{ Equal(T) bool }
	if ac, ok := any(a).(comparer); ok {
		return ac.Equal(b)
	}
	return reflect.DeepEqual(any(a), any(b))
}

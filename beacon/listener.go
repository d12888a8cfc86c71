package beacon

// listenerRegistry is the per-producer set of external subscribers, each with a
// stable handle. add is O(1); remove also scans the insertion-order slice. It is
// deliberately not a mapset.Set keyed by callback, per the design note in §9: the
// same callback may be registered twice intentionally, so identity has to be a
// handle we hand out, not the callback's own (non-comparable) identity.
type listenerRegistry[T any] struct {
	next    uint64
	records map[uint64]func(T)
	order   []uint64 // insertion order, so fan-out is deterministic for tests
}

func newListenerRegistry[T any]() *listenerRegistry[T] {
	return &listenerRegistry[T]{records: map[uint64]func(T){}}
}

// add registers cb and returns a handle that removes exactly this registration.
func (r *listenerRegistry[T]) add(cb func(T)) uint64 {
	r.next++
	h := r.next
	r.records[h] = cb
	r.order = append(r.order, h)
	return h
}

func (r *listenerRegistry[T]) remove(h uint64) {
	if _, ok := r.records[h]; !ok {
		return
	}
	delete(r.records, h)
	for i, id := range r.order {
		if id == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *listenerRegistry[T]) len() int {
	return len(r.records)
}

// each calls fn for every currently-registered listener, in insertion order, over
// a snapshot of the handle list — so a listener disposing itself (or another
// listener) mid-notification never corrupts the iteration.
func (r *listenerRegistry[T]) each(fn func(cb func(T))) {
	if len(r.order) == 0 {
		return
	}
	snapshot := make([]uint64, len(r.order))
	copy(snapshot, r.order)
	for _, h := range snapshot {
		if cb, ok := r.records[h]; ok {
			fn(cb)
		}
	}
}

func (r *listenerRegistry[T]) clear() {
	r.records = map[uint64]func(T){}
	r.order = nil
}

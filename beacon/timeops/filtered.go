package timeops

import (
	"sync"

	"github.com/signalgraph/beacon/beacon"
)

// Filtered is a directly-writable cell gated by a (prev, next) predicate: a
// write is accepted only when the predicate approves the transition from the
// cell's current value to the proposed one. It also watches a source
// WritableCell and runs every value the source forwards through the same
// gate, so it can be driven either by the host calling Set directly or by the
// upstream cell it mirrors — spec.md §4.7.
type Filtered[T any] struct {
	out   *beacon.WritableCell[T]
	unsub func()

	mu   sync.Mutex
	pred func(prev, next T) bool
}

// NewFiltered fails with source's own error if source cannot be peeked at
// construction time, per spec.md §4.7.
func NewFiltered[T any](rt *beacon.Runtime, source *beacon.WritableCell[T], pred func(prev, next T) bool, opts ...beacon.CellOption[T]) (*Filtered[T], error) {
	init, err := source.Peek()
	if err != nil {
		return nil, err
	}
	f := &Filtered[T]{
		out:  beacon.NewWritable(rt, init, opts...),
		pred: pred,
	}
	f.unsub = source.Subscribe(func(v T) {
		f.Set(v, false)
	}, false, true)
	return f, nil
}

// Set writes next, gated by the active predicate's verdict on (current
// value, next). Rejected writes are silently dropped. force bypasses the
// predicate entirely, matching WritableCell's Set/Force split.
func (f *Filtered[T]) Set(next T, force bool) {
	f.mu.Lock()
	pred := f.pred
	f.mu.Unlock()

	prev, _ := f.out.Peek()
	if !force && pred != nil && !pred(prev, next) {
		return
	}
	if force {
		f.out.Force(next)
	} else {
		f.out.Set(next)
	}
}

// SetPredicate replaces the active predicate. Safe to call concurrently with
// writes to the source cell and from within a running effect.
func (f *Filtered[T]) SetPredicate(pred func(prev, next T) bool) {
	f.mu.Lock()
	f.pred = pred
	f.mu.Unlock()
}

func (f *Filtered[T]) Value() (T, error) { return f.out.Value() }
func (f *Filtered[T]) Peek() (T, error)  { return f.out.Peek() }

func (f *Filtered[T]) Subscribe(cb func(T), startNow, synchronous bool) func() {
	return f.out.Subscribe(cb, startNow, synchronous)
}

func (f *Filtered[T]) Dispose() {
	f.unsub()
	f.out.Dispose()
}

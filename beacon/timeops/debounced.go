package timeops

import (
	"sync"
	"time"

	"github.com/signalgraph/beacon/beacon"
)

// Debounced mirrors a source WritableCell, only forwarding a value once the
// source has stopped changing for the configured duration — each new write
// resets the timer, per spec.md §4.7.
type Debounced[T any] struct {
	rt    *beacon.Runtime
	out   *beacon.WritableCell[T]
	unsub func()

	mu     sync.Mutex
	clock  Clock
	dur    time.Duration
	cancel func()
}

// NewDebounced constructs a Debounced cell watching source. clock defaults to
// RealClock() when nil. Fails with source's own error (e.g. ErrLazyRead) if
// source cannot be peeked at construction time, per spec.md §4.7.
func NewDebounced[T any](rt *beacon.Runtime, source *beacon.WritableCell[T], dur time.Duration, clock Clock, opts ...beacon.CellOption[T]) (*Debounced[T], error) {
	if clock == nil {
		clock = RealClock()
	}
	init, err := source.Peek()
	if err != nil {
		return nil, err
	}
	d := &Debounced[T]{
		rt:    rt,
		out:   beacon.NewWritable(rt, init, opts...),
		clock: clock,
		dur:   dur,
	}
	d.unsub = source.Subscribe(func(v T) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.cancel != nil {
			d.cancel()
		}
		d.cancel = d.clock.AfterFunc(d.dur, func() {
			d.rt.RunExclusive(func() { d.out.Set(v) })
		})
	}, false, true)
	return d, nil
}

func (d *Debounced[T]) Value() (T, error) { return d.out.Value() }
func (d *Debounced[T]) Peek() (T, error)  { return d.out.Peek() }

func (d *Debounced[T]) Subscribe(cb func(T), startNow, synchronous bool) func() {
	return d.out.Subscribe(cb, startNow, synchronous)
}

// Dispose stops the pending timer (if any) and detaches from the source.
func (d *Debounced[T]) Dispose() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.unsub()
	d.out.Dispose()
}

package timeops

import (
	"sync"
	"time"

	"github.com/signalgraph/beacon/beacon"
)

// BufferedCount accumulates values from a source into a slice and emits the
// slice (reset to empty) once it reaches the configured count. Per DESIGN.md's
// Open Question decision, the source's value at construction time counts as
// item 0 of the first buffer, matching spec.md §4.7's "buffer starts
// accumulating from the cell's current value, not only future writes".
type BufferedCount[T any] struct {
	rt    *beacon.Runtime
	out   *beacon.WritableCell[[]T]
	unsub func()

	mu     sync.Mutex
	count  int
	buffer []T
}

// NewBufferedCount fails with source's own error if source cannot be peeked
// at construction time, per spec.md §4.7.
func NewBufferedCount[T any](rt *beacon.Runtime, source *beacon.WritableCell[T], count int, opts ...beacon.CellOption[[]T]) (*BufferedCount[T], error) {
	init, err := source.Peek()
	if err != nil {
		return nil, err
	}
	bc := &BufferedCount[T]{
		rt:     rt,
		out:    beacon.NewWritable(rt, []T(nil), opts...),
		count:  count,
		buffer: []T{init},
	}
	bc.unsub = source.Subscribe(func(v T) {
		bc.mu.Lock()
		defer bc.mu.Unlock()
		bc.buffer = append(bc.buffer, v)
		bc.flushIfFull()
	}, false, true)
	bc.flushIfFull()
	return bc, nil
}

// flushIfFull must be called with bc.mu held.
func (bc *BufferedCount[T]) flushIfFull() {
	if len(bc.buffer) < bc.count {
		return
	}
	full := bc.buffer
	bc.buffer = nil
	bc.rt.RunExclusive(func() { bc.out.Set(full) })
}

func (bc *BufferedCount[T]) Value() ([]T, error) { return bc.out.Value() }
func (bc *BufferedCount[T]) Peek() ([]T, error)  { return bc.out.Peek() }

func (bc *BufferedCount[T]) Subscribe(cb func([]T), startNow, synchronous bool) func() {
	return bc.out.Subscribe(cb, startNow, synchronous)
}

func (bc *BufferedCount[T]) Dispose() {
	bc.unsub()
	bc.out.Dispose()
}

// BufferedTime accumulates values arriving within a rolling window and emits
// the accumulated slice once the window elapses since the first buffered item,
// per spec.md §4.7.
type BufferedTime[T any] struct {
	rt    *beacon.Runtime
	out   *beacon.WritableCell[[]T]
	unsub func()

	mu        sync.Mutex
	clock     Clock
	window    time.Duration
	buffer    []T
	cancelWin func()
}

func NewBufferedTime[T any](rt *beacon.Runtime, source *beacon.WritableCell[T], window time.Duration, clock Clock, opts ...beacon.CellOption[[]T]) *BufferedTime[T] {
	if clock == nil {
		clock = RealClock()
	}
	bt := &BufferedTime[T]{
		rt:     rt,
		out:    beacon.NewWritable(rt, []T(nil), opts...),
		clock:  clock,
		window: window,
	}
	bt.unsub = source.Subscribe(func(v T) {
		bt.mu.Lock()
		defer bt.mu.Unlock()
		bt.buffer = append(bt.buffer, v)
		if bt.cancelWin == nil {
			bt.cancelWin = bt.clock.AfterFunc(bt.window, bt.flush)
		}
	}, false, true)
	return bt
}

func (bt *BufferedTime[T]) flush() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	if len(bt.buffer) == 0 {
		bt.cancelWin = nil
		return
	}
	full := bt.buffer
	bt.buffer = nil
	bt.cancelWin = nil
	bt.rt.RunExclusive(func() { bt.out.Set(full) })
}

func (bt *BufferedTime[T]) Value() ([]T, error) { return bt.out.Value() }
func (bt *BufferedTime[T]) Peek() ([]T, error)  { return bt.out.Peek() }

func (bt *BufferedTime[T]) Subscribe(cb func([]T), startNow, synchronous bool) func() {
	return bt.out.Subscribe(cb, startNow, synchronous)
}

func (bt *BufferedTime[T]) Dispose() {
	bt.mu.Lock()
	if bt.cancelWin != nil {
		bt.cancelWin()
	}
	bt.mu.Unlock()
	bt.unsub()
	bt.out.Dispose()
}

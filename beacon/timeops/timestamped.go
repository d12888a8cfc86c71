package timeops

import (
	"time"

	"github.com/signalgraph/beacon/beacon"
)

// Stamped pairs a value with the clock time it was written at.
type Stamped[T any] struct {
	Value T
	At    time.Time
}

// Timestamped mirrors a source WritableCell, wrapping every forwarded value
// with the time it arrived, per spec.md §4.7.
type Timestamped[T any] struct {
	out   *beacon.WritableCell[Stamped[T]]
	unsub func()
}

// NewTimestamped fails with source's own error if source cannot be peeked at
// construction time, per spec.md §4.7.
func NewTimestamped[T any](rt *beacon.Runtime, source *beacon.WritableCell[T], clock Clock, opts ...beacon.CellOption[Stamped[T]]) (*Timestamped[T], error) {
	if clock == nil {
		clock = RealClock()
	}
	init, err := source.Peek()
	if err != nil {
		return nil, err
	}
	ts := &Timestamped[T]{
		out: beacon.NewWritable(rt, Stamped[T]{Value: init, At: clock.Now()}, opts...),
	}
	ts.unsub = source.Subscribe(func(v T) {
		ts.out.Set(Stamped[T]{Value: v, At: clock.Now()})
	}, false, true)
	return ts, nil
}

func (ts *Timestamped[T]) Value() (Stamped[T], error) { return ts.out.Value() }
func (ts *Timestamped[T]) Peek() (Stamped[T], error)  { return ts.out.Peek() }

func (ts *Timestamped[T]) Subscribe(cb func(Stamped[T]), startNow, synchronous bool) func() {
	return ts.out.Subscribe(cb, startNow, synchronous)
}

func (ts *Timestamped[T]) Dispose() {
	ts.unsub()
	ts.out.Dispose()
}

// Package streams bridges the beacon reactive graph to Go's channel-based
// concurrency idioms: turning a channel into a cell (FromStream/FromStreamRaw),
// a one-shot async call into a cell (FromFuture), a cell's changes back into a
// channel (ToStream), and waiting for a cell's next change as a blocking call
// (Next/NextMatching). Grounded on the host-collaborator interfaces spec.md §6
// describes for adapting external async sources into the graph.
package streams

import (
	"context"
	"errors"
	"time"

	"github.com/signalgraph/beacon/beacon"
)

// ErrTimeout is unused by Next/NextMatching itself (a timeout now falls back
// to the cell's current value, per spec.md §4.8) but kept for callers that
// want a sentinel to compare their own wrapping timeout logic against.
var ErrTimeout = errors.New("streams: timed out waiting for next value")

// ErrClosed is not returned by this package's own functions: FromStream and
// FromStreamRaw stop mirroring without an error when their channel closes.
var ErrClosed = errors.New("streams: source channel closed")

// Result pairs a streamed value with an error, the channel element type
// FromStream expects — mirroring how AsyncValue pairs Value/Err for the pull
// side of the graph.
type Result[T any] struct {
	Value T
	Err   error
}

// FromStreamRaw creates a WritableCell seeded with initial and kept in sync
// with ch: every receive calls Set, until ch closes. The returned stop func
// both disposes the cell and (best-effort) stops the background goroutine from
// reading further, though a still-blocked send on ch will only unblock when
// the producer itself closes or sends again.
func FromStreamRaw[T any](rt *beacon.Runtime, ch <-chan T, initial T, opts ...beacon.CellOption[T]) (*beacon.WritableCell[T], func()) {
	cell := beacon.NewWritable(rt, initial, opts...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					return
				}
				rt.RunExclusive(func() { cell.Set(v) })
			case <-done:
				return
			}
		}
	}()
	stop := func() {
		close(done)
		cell.Dispose()
	}
	return cell, stop
}

// FromStream creates an AsyncDerivedCell-shaped WritableCell[AsyncValue[T]]
// that goes Loading until the first Result arrives, Data/Error per Result
// after that, and keeps the last settled value in Previous across further
// updates, matching the AsyncValue contract used everywhere else in this
// module.
func FromStream[T any](rt *beacon.Runtime, ch <-chan Result[T]) (*beacon.WritableCell[beacon.AsyncValue[T]], func()) {
	cell := beacon.NewWritable(rt, beacon.AsyncLoadingValue[T](nil))
	done := make(chan struct{})
	go func() {
		for {
			select {
			case r, ok := <-ch:
				if !ok {
					return
				}
				rt.RunExclusive(func() {
					prev, _ := cell.Peek()
					if r.Err != nil {
						cell.Set(beacon.AsyncErrorValue[T](r.Err, &prev))
					} else {
						cell.Set(beacon.AsyncDataValue(r.Value, &prev))
					}
				})
			case <-done:
				return
			}
		}
	}()
	stop := func() {
		close(done)
		cell.Dispose()
	}
	return cell, stop
}

// FromFuture runs fn once on its own goroutine and reports the result into a
// WritableCell[AsyncValue[T]], starting at AsyncLoading. This is FromStream's
// single-shot counterpart, grounded on the same AsyncValue vocabulary as
// AsyncDerivedCell but without a tracked source — the call simply happens once.
func FromFuture[T any](rt *beacon.Runtime, ctx context.Context, fn func(context.Context) (T, error)) *beacon.WritableCell[beacon.AsyncValue[T]] {
	cell := beacon.NewWritable(rt, beacon.AsyncLoadingValue[T](nil))
	go func() {
		v, err := fn(ctx)
		rt.RunExclusive(func() {
			prev, _ := cell.Peek()
			if err != nil {
				cell.Set(beacon.AsyncErrorValue[T](err, &prev))
			} else {
				cell.Set(beacon.AsyncDataValue(v, &prev))
			}
		})
	}()
	return cell
}

// ToStream returns a channel that receives every value cell is set to, and a
// stop function that unsubscribes and closes the channel. The channel is
// buffered per bufferSize to decouple the cell's write path from a slow
// consumer; a full buffer drops the oldest pending value rather than blocking
// a write to the cell, since the reactive graph must never stall on I/O. The
// subscription is synchronous so a value reaches the channel on the same Set
// call that accepted it, regardless of the runtime's scheduler mode.
func ToStream[T any](cell *beacon.WritableCell[T], bufferSize int) (<-chan T, func()) {
	if bufferSize < 1 {
		bufferSize = 1
	}
	out := make(chan T, bufferSize)
	unsub := cell.Subscribe(func(v T) {
		select {
		case out <- v:
		default:
			select {
			case <-out:
			default:
			}
			select {
			case out <- v:
			default:
			}
		}
	}, false, true)
	stop := func() {
		unsub()
		close(out)
	}
	return out, stop
}

// Next blocks until cell's value changes, or timeout elapses if timeout > 0.
func Next[T any](cell *beacon.WritableCell[T], timeout time.Duration) (T, error) {
	return NextMatching(cell, nil, timeout)
}

// NextMatching blocks until cell's value changes to something pred accepts
// (pred == nil accepts anything), or timeout elapses if timeout > 0. Next is
// the thin wrapper over this for the common "no filter" case.
func NextMatching[T any](cell *beacon.WritableCell[T], pred func(T) bool, timeout time.Duration) (T, error) {
	result := make(chan T, 1)
	unsub := cell.Subscribe(func(v T) {
		if pred == nil || pred(v) {
			select {
			case result <- v:
			default:
			}
		}
	}, false, true)
	defer unsub()

	if timeout <= 0 {
		return <-result, nil
	}
	select {
	case v := <-result:
		return v, nil
	case <-time.After(timeout):
		// The deadline elapsed without a matching emission; report the cell's
		// current value rather than a timeout error, per spec.md §4.8.
		return cell.Peek()
	}
}

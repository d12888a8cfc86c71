package timeops

import (
	"sync"
	"time"

	"github.com/signalgraph/beacon/beacon"
)

// Throttled mirrors a source WritableCell at most once per duration window.
// The first write in a window is forwarded immediately (leading edge). Writes
// arriving while a window is open are handled per dropBlocked, per spec.md
// §4.7: dropBlocked discards them; otherwise (FIFO/trailing) the latest one is
// remembered and forwarded once the current window closes, which then opens a
// fresh window rather than allowing an immediate second burst.
type Throttled[T any] struct {
	rt    *beacon.Runtime
	out   *beacon.WritableCell[T]
	unsub func()

	mu          sync.Mutex
	clock       Clock
	dur         time.Duration
	dropBlocked bool

	windowOpen bool
	hasPending bool
	pending    T
	cancelWin  func()
}

// NewThrottled fails with source's own error if source cannot be peeked at
// construction time, per spec.md §4.7.
func NewThrottled[T any](rt *beacon.Runtime, source *beacon.WritableCell[T], dur time.Duration, dropBlocked bool, clock Clock, opts ...beacon.CellOption[T]) (*Throttled[T], error) {
	if clock == nil {
		clock = RealClock()
	}
	init, err := source.Peek()
	if err != nil {
		return nil, err
	}
	th := &Throttled[T]{
		rt:          rt,
		out:         beacon.NewWritable(rt, init, opts...),
		clock:       clock,
		dur:         dur,
		dropBlocked: dropBlocked,
	}
	th.unsub = source.Subscribe(func(v T) {
		th.mu.Lock()
		defer th.mu.Unlock()
		if !th.windowOpen {
			th.openWindow(v)
			return
		}
		if th.dropBlocked {
			return
		}
		th.hasPending = true
		th.pending = v
	}, false, true)
	return th, nil
}

// openWindow must be called with th.mu held. The cell write goes through
// RunExclusive since the window-close path that also calls this runs on a
// timer goroutine, not the host's cooperative one.
func (th *Throttled[T]) openWindow(v T) {
	th.rt.RunExclusive(func() { th.out.Set(v) })
	th.windowOpen = true
	th.hasPending = false
	th.cancelWin = th.clock.AfterFunc(th.dur, th.onWindowClose)
}

func (th *Throttled[T]) onWindowClose() {
	th.mu.Lock()
	defer th.mu.Unlock()
	th.windowOpen = false
	if th.hasPending {
		th.openWindow(th.pending)
	}
}

func (th *Throttled[T]) Value() (T, error) { return th.out.Value() }
func (th *Throttled[T]) Peek() (T, error)  { return th.out.Peek() }

func (th *Throttled[T]) Subscribe(cb func(T), startNow, synchronous bool) func() {
	return th.out.Subscribe(cb, startNow, synchronous)
}

func (th *Throttled[T]) Dispose() {
	th.mu.Lock()
	if th.cancelWin != nil {
		th.cancelWin()
	}
	th.mu.Unlock()
	th.unsub()
	th.out.Dispose()
}

package beacon

import (
	"sync"
	"time"
)

// Runtime is a self-contained reactive graph: its own tracking context, its own
// scheduler, its own coarse mutex. Nothing here is global — two Runtimes never
// interact, matching spec.md §5's "no shared global state between runtimes".
//
// The public graph API (Value/Peek/Set/Subscribe/Dispose/Batch/Untracked/Flush)
// does not itself lock mu: it is cooperative by contract, grounded in the same
// single-threaded assumption reactively.go and pkg/flimsy make, and the whole
// call tree for one host-initiated write or read runs on the host's calling
// goroutine without ever re-entering the same critical section from another
// goroutine. The mutex exists for exactly the seam spec.md §5 calls out: a
// background goroutine the host did not initiate synchronously — a fired
// timer (timeops), a completed future or a stream delivering a value
// (async.go, streams) — must call back in through RunExclusive rather than
// touching cells directly, which serializes those callbacks against each
// other and against whatever the host's own goroutine is doing. This mutex is
// never held across a recursive call on the same goroutine, so it cannot
// deadlock the way wrapping every public method in it would.
type Runtime struct {
	mu sync.Mutex

	tracking  *trackingContext
	scheduler *Scheduler

	nameSeq uint64
}

// NewRuntime constructs an independent reactive graph.
func NewRuntime() *Runtime {
	rt := &Runtime{tracking: newTrackingContext()}
	rt.scheduler = newScheduler(rt)
	return rt
}

// Scheduler exposes the runtime's scheduler for mode switching, manual
// flushing, and installing a microtask hook (spec.md §6).
func (rt *Runtime) Scheduler() *Scheduler { return rt.scheduler }

// anonName hands out a stable, diagnosable default name for a cell that wasn't
// given one via WithName, e.g. "writable#7".
func (rt *Runtime) anonName(kind string) string {
	rt.nameSeq++
	return kind + "#" + uitoa(rt.nameSeq)
}

func uitoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Batch defers every producer's notify() within fn to a single pass at the end
// of the outermost Batch call, coalescing multiple writes to the same cell into
// one dependent/listener notification (spec.md §4.1, §8 scenario S1). Batch
// calls nest transparently.
func (rt *Runtime) Batch(fn func()) {
	rt.tracking.beginBatch()
	defer rt.tracking.endBatch(func(p producerNode) {
		notifier, ok := p.(interface{ notify() })
		if ok {
			notifier.notify()
		}
	})
	fn()
}

// Untracked suppresses dependency recording for the duration of fn, per
// spec.md §4.1 ("reads inside untrack register no dependency").
func (rt *Runtime) Untracked(fn func()) {
	rt.tracking.runUntracked(fn)
}

// Flush synchronously drains the scheduler's queue, regardless of mode.
func (rt *Runtime) Flush() { rt.scheduler.Flush() }

// UseSync switches this runtime's scheduler to ModeSync, per spec.md §4.2.
func (rt *Runtime) UseSync() { rt.scheduler.SetMode(ModeSync) }

// UseAsync switches this runtime's scheduler to ModeAsync, per spec.md §4.2.
func (rt *Runtime) UseAsync() { rt.scheduler.SetMode(ModeAsync) }

// Settle waits, up to d, for the scheduler's queue to drain to empty, for a
// host with no event loop of its own to integrate with (spec.md §4.2, §6).
func (rt *Runtime) Settle(d time.Duration) <-chan struct{} { return rt.scheduler.Settle(d) }

// RunExclusive runs fn while holding the runtime's coarse mutex. This is the
// documented entry point for any goroutine other than the host's own
// cooperative one — a fired timer, a completed future, a stream delivering a
// value — to call back into the graph safely (spec.md §5).
func (rt *Runtime) RunExclusive(fn func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	fn()
}

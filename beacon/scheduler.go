package beacon

import "time"

// SchedulerMode selects how the Scheduler drains its queue, per spec.md §4.2.
type SchedulerMode int

const (
	// ModeAsync defers draining to a microtask-equivalent: the queue fills up
	// across a burst of synchronous writes and drains once via a hook the host
	// installs with SetMicrotaskHook (defaulting to a drain on a background
	// goroutine if no hook is installed). This is the default, matching
	// alien's queuedEffects + processEffectNotifications pattern.
	ModeAsync SchedulerMode = iota
	// ModeSync drains the queue inline, at the point markStale first enqueues
	// into an empty queue — useful for deterministic tests, unsafe with
	// respect to write-during-run feedback loops (spec.md §4.2).
	ModeSync
)

// Scheduler is the FIFO queue of stale scheduled consumers (Effects and
// non-synchronous plain subscriptions) described in
// spec.md §4.2, grounded on alien's queuedEffects slice and
// processEffectNotifications drain loop, and on rocket's generation-counter dedup
// idea (here realized as consumerBase.queued rather than a counter).
type Scheduler struct {
	rt   *Runtime
	mode SchedulerMode

	queue []consumerNode

	draining     bool
	microtask    func(func())
	microtaskSet bool
}

func newScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{rt: rt, mode: ModeAsync}
}

// enqueue appends c to the FIFO queue. Callers (consumerBase.markStale) have
// already set the dedup flag before calling this, so enqueue never needs to
// scan the queue.
func (s *Scheduler) enqueue(c consumerNode) {
	s.queue = append(s.queue, c)
	if s.mode == ModeSync {
		s.drain()
		return
	}
	if len(s.queue) == 1 {
		s.scheduleDrain()
	}
}

func (s *Scheduler) scheduleDrain() {
	if s.microtaskSet {
		s.microtask(func() {
			s.rt.RunExclusive(s.drain)
		})
		return
	}
	// No host-supplied microtask hook: approximate one with a background
	// goroutine through the same RunExclusive seam a fired timer or a
	// completed future already uses, so ModeAsync settles on its own instead
	// of requiring every host to wire SetMicrotaskHook (spec.md §4.2, §6).
	go s.rt.RunExclusive(s.drain)
}

// drain runs every consumer currently queued, in FIFO order, including any that
// get appended to the queue as a side effect of running an earlier one (an
// effect writing a cell that schedules another effect). Re-entrant drains
// (drain called while already draining) are absorbed into the outer call.
func (s *Scheduler) drain() {
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()

	for len(s.queue) > 0 {
		c := s.queue[0]
		s.queue = s.queue[1:]
		if c.isDisposed() {
			continue
		}
		if cb, ok := c.(*consumerBase); ok {
			cb.updateIfNecessary()
		}
	}
}

// Flush synchronously drains the scheduler's queue regardless of mode. In
// ModeSync the queue is already always empty by the time Flush is called
// (drain happens inline on enqueue); in ModeAsync this is the host's "pump the
// event loop" hook, analogous to alien's explicit flushJobs-style call and to
// spec.md §6's documented `scheduler.flush()` escape hatch.
func (s *Scheduler) Flush() {
	s.drain()
}

// SetMode switches between synchronous and asynchronous draining. Switching to
// ModeSync drains whatever is already queued immediately.
func (s *Scheduler) SetMode(mode SchedulerMode) {
	s.mode = mode
	if mode == ModeSync {
		s.drain()
	}
}

// SetMicrotaskHook installs the callback the host uses to schedule a deferred
// drain (e.g. wiring it to a real event loop's microtask queue, or to
// time.AfterFunc(0, ...) for a goroutine-based host). Passing nil reverts to
// the goroutine-based default drain.
func (s *Scheduler) SetMicrotaskHook(hook func(func())) {
	s.microtask = hook
	s.microtaskSet = hook != nil
}

// SetScheduler is an alias for SetMicrotaskHook, matching the vocabulary
// spec.md §6 uses for this same hook.
func (s *Scheduler) SetScheduler(hook func(func())) { s.SetMicrotaskHook(hook) }

// Settle waits, up to d, for the queue to drain to empty, polling at a short
// fixed interval — the fallback a host with no event loop of its own can
// block on instead of guessing how long an async drain takes.
func (s *Scheduler) Settle(d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	deadline := time.Now().Add(d)
	go func() {
		defer close(done)
		for {
			s.rt.mu.Lock()
			pending := len(s.queue)
			s.rt.mu.Unlock()
			if pending == 0 || time.Now().After(deadline) {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return done
}

// Pending reports how many scheduled consumers are currently queued, for tests
// and for cmd/beaconbench's reporting.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

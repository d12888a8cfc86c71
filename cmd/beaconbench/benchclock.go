package main

import (
	"sort"
	"time"

	"github.com/signalgraph/beacon/beacon/timeops"
)

// benchClock is a manually-advanced timeops.Clock, the same determinism trick
// timeops' own test suite uses a fakeClock for — a benchmark that sleeps on a
// real timer would spend most of its wall time waiting rather than measuring.
type benchClock struct {
	now     time.Time
	pending []*benchTimer
}

type benchTimer struct {
	deadline time.Time
	fn       func()
	fired    bool
	stopped  bool
}

func newBenchClock() *benchClock {
	return &benchClock{now: time.Unix(0, 0)}
}

func (c *benchClock) Now() time.Time { return c.now }

func (c *benchClock) AfterFunc(d time.Duration, f func()) func() {
	t := &benchTimer{deadline: c.now.Add(d), fn: f}
	c.pending = append(c.pending, t)
	return func() { t.stopped = true }
}

// Advance moves the clock forward by d and fires every pending, unstopped
// timer whose deadline has elapsed, in deadline order.
func (c *benchClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	sort.SliceStable(c.pending, func(i, j int) bool {
		return c.pending[i].deadline.Before(c.pending[j].deadline)
	})
	for _, t := range c.pending {
		if t.fired || t.stopped || t.deadline.After(c.now) {
			continue
		}
		t.fired = true
		t.fn()
	}
}

var _ timeops.Clock = (*benchClock)(nil)

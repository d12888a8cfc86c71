package beacon

// trackingContext is the per-Runtime ambient state reactively.go keeps globally
// on ReactiveContext (currentGets/currentGetIndex) and pkg/flimsy keeps on
// Runtime.observer/tracking/batch — here it is not global, so two Runtimes never
// share tracking state (spec.md §5: "no implicit global runtime").
type trackingContext struct {
	stack          []*trackingFrame
	untrackedDepth int

	batchDepth  int
	batchOrder  []producerNode // producers with a deferred notify, in first-write order
	batchPending map[producerNode]struct{}
}

// trackingFrame records the reads a single consumer run makes, deduplicated by
// identity (reading the same producer twice in one run counts once), mirroring
// reactively.go's currentGets slice for the node currently being recomputed.
type trackingFrame struct {
	consumer consumerNode
	reads    []producerNode
	seen     map[producerNode]struct{}
}

func newTrackingContext() *trackingContext {
	return &trackingContext{batchPending: map[producerNode]struct{}{}}
}

// current returns the consumer that a Value()/Peek() read should register
// against, or nil if no consumer is currently running (a top-level read).
func (tc *trackingContext) current() consumerNode {
	if len(tc.stack) == 0 {
		return nil
	}
	return tc.stack[len(tc.stack)-1].consumer
}

func (tc *trackingContext) pushFrame(c consumerNode) *trackingFrame {
	f := &trackingFrame{consumer: c, seen: map[producerNode]struct{}{}}
	tc.stack = append(tc.stack, f)
	return f
}

func (tc *trackingContext) popFrame(f *trackingFrame) []producerNode {
	tc.stack = tc.stack[:len(tc.stack)-1]
	return f.reads
}

// recordRead registers a dependency read against the currently-running
// consumer's frame, unless we're inside Untracked (untrackedDepth > 0) or there
// is no consumer running at all (a plain top-level Value() call).
func (tc *trackingContext) recordRead(p producerNode) {
	if tc.untrackedDepth > 0 || len(tc.stack) == 0 {
		return
	}
	f := tc.stack[len(tc.stack)-1]
	if _, ok := f.seen[p]; ok {
		return
	}
	f.seen[p] = struct{}{}
	f.reads = append(f.reads, p)
}

// runUntracked executes fn with dependency recording suspended, per spec.md
// §4.1 ("reads inside untrack register no dependency"). Nested calls compose via
// a depth counter, matching reactively.go's Untrack.
func (tc *trackingContext) runUntracked(fn func()) {
	tc.untrackedDepth++
	defer func() { tc.untrackedDepth-- }()
	fn()
}

// deferNotify records that p has an outstanding notify() to run once the
// outermost batch exits, deduplicated by identity — writing the same producer
// three times inside one batch still only notifies its dependents once, with
// whatever value it holds when the batch ends (spec.md §8 scenario S1).
func (tc *trackingContext) deferNotify(p producerNode) {
	if _, ok := tc.batchPending[p]; ok {
		return
	}
	tc.batchPending[p] = struct{}{}
	tc.batchOrder = append(tc.batchOrder, p)
}

// beginBatch/endBatch implement nested batching: only the outermost endBatch
// actually drains pending notifications, so a batch called from inside another
// batch is transparent, per spec.md §4.1.
func (tc *trackingContext) beginBatch() {
	tc.batchDepth++
}

func (tc *trackingContext) endBatch(notify func(producerNode)) {
	tc.batchDepth--
	if tc.batchDepth > 0 {
		return
	}
	order := tc.batchOrder
	tc.batchOrder = nil
	tc.batchPending = map[producerNode]struct{}{}
	for _, p := range order {
		notify(p)
	}
}

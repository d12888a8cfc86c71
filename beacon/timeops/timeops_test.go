package timeops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalgraph/beacon/beacon"
)

func TestDebouncedForwardsOnlyAfterQuietPeriod(t *testing.T) {
	rt := beacon.NewRuntime()
	clock := newFakeClock()
	source := beacon.NewWritable(rt, 0)
	d, err := NewDebounced(rt, source, 100*time.Millisecond, clock)
	require.NoError(t, err)
	defer d.Dispose()

	source.Set(1)
	clock.Advance(50 * time.Millisecond)
	v, _ := d.Value()
	assert.Equal(t, 0, v, "still within the quiet period, nothing forwarded yet")

	source.Set(2) // resets the timer
	clock.Advance(50 * time.Millisecond)
	v, _ = d.Value()
	assert.Equal(t, 0, v, "the reset from source.Set(2) means 100ms hasn't elapsed since the last write")

	clock.Advance(50 * time.Millisecond)
	v, _ = d.Value()
	assert.Equal(t, 2, v)
}

func TestDebouncedPropagatesLazyReadError(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewLazyWritable[int](rt)
	_, err := NewDebounced(rt, source, 100*time.Millisecond, newFakeClock())
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrLazyRead)
}

func TestThrottledLeadingEdgeThenTrailingPending(t *testing.T) {
	rt := beacon.NewRuntime()
	clock := newFakeClock()
	source := beacon.NewWritable(rt, 0)
	th, err := NewThrottled(rt, source, 100*time.Millisecond, false, clock)
	require.NoError(t, err)
	defer th.Dispose()

	source.Set(1)
	v, _ := th.Value()
	assert.Equal(t, 1, v, "the first write in a window forwards immediately")

	source.Set(2)
	source.Set(3)
	v, _ = th.Value()
	assert.Equal(t, 1, v, "writes while the window is open do not forward yet")

	clock.Advance(100 * time.Millisecond)
	v, _ = th.Value()
	assert.Equal(t, 3, v, "the latest pending value forwards once the window closes")
}

func TestThrottledDropBlockedDiscardsWritesDuringWindow(t *testing.T) {
	rt := beacon.NewRuntime()
	clock := newFakeClock()
	source := beacon.NewWritable(rt, 0)
	th, err := NewThrottled(rt, source, 100*time.Millisecond, true, clock)
	require.NoError(t, err)
	defer th.Dispose()

	source.Set(1)
	source.Set(2)
	clock.Advance(100 * time.Millisecond)
	v, _ := th.Value()
	assert.Equal(t, 1, v, "dropBlocked discards writes made while a window is open")
}

func TestThrottledPropagatesLazyReadError(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewLazyWritable[int](rt)
	_, err := NewThrottled(rt, source, 100*time.Millisecond, false, newFakeClock())
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrLazyRead)
}

func TestBufferedCountIncludesInitialValueAsFirstItem(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	bc, err := NewBufferedCount(rt, source, 3)
	require.NoError(t, err)
	defer bc.Dispose()

	v, _ := bc.Value()
	assert.Empty(t, v)

	source.Set(1)
	source.Set(2)
	v, _ = bc.Value()
	assert.Equal(t, []int{0, 1, 2}, v)
}

func TestBufferedCountPropagatesLazyReadError(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewLazyWritable[int](rt)
	_, err := NewBufferedCount(rt, source, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrLazyRead)
}

func TestBufferedTimeFlushesAfterWindowElapses(t *testing.T) {
	rt := beacon.NewRuntime()
	clock := newFakeClock()
	source := beacon.NewWritable(rt, 0)
	bt := NewBufferedTime(rt, source, 100*time.Millisecond, clock)
	defer bt.Dispose()

	source.Set(1)
	source.Set(2)
	v, _ := bt.Value()
	assert.Empty(t, v, "nothing flushes before the window elapses")

	clock.Advance(100 * time.Millisecond)
	v, _ = bt.Value()
	assert.Equal(t, []int{1, 2}, v)
}

func TestFilteredOnlyForwardsAcceptedValues(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	f, err := NewFiltered(rt, source, func(_, next int) bool { return next%2 == 0 })
	require.NoError(t, err)
	defer f.Dispose()

	source.Set(1)
	v, _ := f.Value()
	assert.Equal(t, 0, v, "odd values are rejected")

	source.Set(4)
	v, _ = f.Value()
	assert.Equal(t, 4, v)
}

func TestFilteredSetPredicateSwapsLiveFilter(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	f, err := NewFiltered(rt, source, func(_, next int) bool { return next > 100 })
	require.NoError(t, err)
	defer f.Dispose()

	source.Set(5)
	v, _ := f.Value()
	assert.Equal(t, 0, v)

	f.SetPredicate(func(_, next int) bool { return next < 100 })
	source.Set(6)
	v, _ = f.Value()
	assert.Equal(t, 6, v)
}

func TestFilteredPredicateSeesPreviousValue(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	// only accept strictly increasing values
	f, err := NewFiltered(rt, source, func(prev, next int) bool { return next > prev })
	require.NoError(t, err)
	defer f.Dispose()

	f.Set(5, false)
	v, _ := f.Value()
	assert.Equal(t, 5, v)

	f.Set(3, false)
	v, _ = f.Value()
	assert.Equal(t, 5, v, "3 is not greater than the current value 5, so it's rejected")

	f.Set(3, true)
	v, _ = f.Value()
	assert.Equal(t, 3, v, "force bypasses the predicate")
}

func TestFilteredPropagatesLazyReadError(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewLazyWritable[int](rt)
	_, err := NewFiltered(rt, source, func(_, next int) bool { return true })
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrLazyRead)
}

func TestTimestampedStampsEveryForwardedValue(t *testing.T) {
	rt := beacon.NewRuntime()
	clock := newFakeClock()
	source := beacon.NewWritable(rt, "a")
	ts, err := NewTimestamped(rt, source, clock)
	require.NoError(t, err)
	defer ts.Dispose()

	init, _ := ts.Value()
	assert.Equal(t, "a", init.Value)
	assert.Equal(t, clock.Now(), init.At)

	clock.Advance(5 * time.Second)
	source.Set("b")
	v, _ := ts.Value()
	assert.Equal(t, "b", v.Value)
	assert.Equal(t, clock.Now(), v.At)
}

func TestTimestampedPropagatesLazyReadError(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewLazyWritable[string](rt)
	_, err := NewTimestamped(rt, source, newFakeClock())
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrLazyRead)
}

func TestUndoRedoStepsThroughHistory(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	ur, err := NewUndoRedo(source, 0)
	require.NoError(t, err)
	defer ur.Dispose()

	source.Set(1)
	source.Set(2)
	assert.Equal(t, 3, ur.Len())

	require.True(t, ur.CanUndo())
	require.True(t, ur.Undo())
	v, _ := source.Value()
	assert.Equal(t, 1, v)

	require.True(t, ur.Undo())
	v, _ = source.Value()
	assert.Equal(t, 0, v)
	assert.False(t, ur.CanUndo())

	require.True(t, ur.Redo())
	v, _ = source.Value()
	assert.Equal(t, 1, v)
}

func TestUndoRedoUndoDoesNotRecordNewHistoryEntry(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	ur, err := NewUndoRedo(source, 0)
	require.NoError(t, err)
	defer ur.Dispose()

	source.Set(1)
	source.Set(2)
	ur.Undo()
	assert.Equal(t, 3, ur.Len(), "stepping back must not append a new history entry")
}

func TestUndoRedoHistoryLimitTrimsOldEntries(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewWritable(rt, 0)
	ur, err := NewUndoRedo(source, 2)
	require.NoError(t, err)
	defer ur.Dispose()

	source.Set(1)
	source.Set(2)
	source.Set(3)
	assert.Equal(t, 2, ur.Len())
	assert.False(t, ur.CanRedo())

	require.True(t, ur.Undo())
	v, _ := source.Value()
	assert.Equal(t, 2, v, "the oldest entries (0, 1) were trimmed once the limit was exceeded")
}

func TestUndoRedoPropagatesLazyReadError(t *testing.T) {
	rt := beacon.NewRuntime()
	source := beacon.NewLazyWritable[int](rt)
	_, err := NewUndoRedo(source, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, beacon.ErrLazyRead)
}

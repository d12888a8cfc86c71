package streams

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalgraph/beacon/beacon"
)

func TestFromStreamRawMirrorsChannelValues(t *testing.T) {
	rt := beacon.NewRuntime()
	ch := make(chan int)
	cell, stop := FromStreamRaw(rt, ch, 0)
	defer stop()

	ch <- 1
	require.Eventually(t, func() bool {
		v, _ := cell.Peek()
		return v == 1
	}, time.Second, time.Millisecond)

	ch <- 2
	require.Eventually(t, func() bool {
		v, _ := cell.Peek()
		return v == 2
	}, time.Second, time.Millisecond)
}

func TestFromStreamGoesLoadingThenData(t *testing.T) {
	rt := beacon.NewRuntime()
	ch := make(chan Result[string])
	cell, stop := FromStream[string](rt, ch)
	defer stop()

	v, _ := cell.Peek()
	assert.True(t, v.IsLoading())

	ch <- Result[string]{Value: "hi"}
	require.Eventually(t, func() bool {
		v, _ := cell.Peek()
		return v.IsData()
	}, time.Second, time.Millisecond)

	final, _ := cell.Peek()
	assert.Equal(t, "hi", final.Value)
}

func TestFromStreamSurfacesErrorResult(t *testing.T) {
	rt := beacon.NewRuntime()
	ch := make(chan Result[string])
	cell, stop := FromStream[string](rt, ch)
	defer stop()

	boom := errors.New("boom")
	ch <- Result[string]{Err: boom}
	require.Eventually(t, func() bool {
		v, _ := cell.Peek()
		return v.IsError()
	}, time.Second, time.Millisecond)

	final, _ := cell.Peek()
	assert.ErrorIs(t, final.Err, boom)
}

func TestFromFutureResolvesOnce(t *testing.T) {
	rt := beacon.NewRuntime()
	cell := FromFuture(rt, context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, _ := cell.Peek()
	assert.True(t, v.IsLoading())

	require.Eventually(t, func() bool {
		v, _ := cell.Peek()
		return v.IsData()
	}, time.Second, time.Millisecond)

	final, _ := cell.Peek()
	assert.Equal(t, 42, final.Value)
}

func TestToStreamDeliversWrites(t *testing.T) {
	rt := beacon.NewRuntime()
	cell := beacon.NewWritable(rt, 0)
	out, stop := ToStream(cell, 4)
	defer stop()

	cell.Set(1)
	cell.Set(2)

	assert.Equal(t, 1, <-out)
	assert.Equal(t, 2, <-out)
}

func TestNextBlocksUntilNextChange(t *testing.T) {
	rt := beacon.NewRuntime()
	cell := beacon.NewWritable(rt, 0)

	done := make(chan int, 1)
	go func() {
		v, err := Next(cell, 0)
		if err == nil {
			done <- v
		}
	}()

	require.Eventually(t, func() bool {
		return cell.ListenersCount() == 1
	}, time.Second, time.Millisecond, "Next must subscribe before the write it waits for")
	cell.Set(7)
	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("Next never observed the write")
	}
}

func TestNextMatchingTimeoutReturnsCurrentValue(t *testing.T) {
	rt := beacon.NewRuntime()
	cell := beacon.NewWritable(rt, 42)

	v, err := NextMatching(cell, func(v int) bool { return v > 100 }, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 42, v, "no matching emission arrived, so the deadline falls back to the cell's current value")
}

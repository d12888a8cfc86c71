package beacon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncDerivedStartsLoadingThenResolvesData(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)
	release := make(chan struct{})

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (string, error) {
		<-release
		return "value-for-" + itoaTest(src), nil
	})

	av := a.Value()
	require.True(t, av.IsLoading())

	close(release)
	require.Eventually(t, func() bool {
		return a.Peek().IsData()
	}, time.Second, time.Millisecond)

	final := a.Peek()
	assert.Equal(t, "value-for-1", final.Value)
}

func TestAsyncDerivedSurfacesFetchError(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)
	boom := errors.New("fetch failed")

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (string, error) {
		return "", boom
	})

	a.Value()
	require.Eventually(t, func() bool {
		return a.Peek().IsError()
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, a.Peek().Err, boom)
}

func TestAsyncDerivedLatestWinsOnSourceChange(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)

	firstStarted := make(chan struct{})
	firstCtxDone := make(chan struct{})
	secondStarted := make(chan struct{})

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (int, error) {
		if src == 1 {
			close(firstStarted)
			<-ctx.Done()
			close(firstCtxDone)
			return 0, ctx.Err()
		}
		close(secondStarted)
		return src * 10, nil
	})

	a.Value()
	<-firstStarted

	id.Set(2)
	a.Value() // pulls source change, cancels the in-flight fetch for src==1, starts src==2

	select {
	case <-firstCtxDone:
	case <-time.After(time.Second):
		t.Fatal("superseded fetch's context was never cancelled")
	}
	select {
	case <-secondStarted:
	case <-time.After(time.Second):
		t.Fatal("new fetch for src==2 never started")
	}

	require.Eventually(t, func() bool {
		return a.Peek().IsData()
	}, time.Second, time.Millisecond)

	assert.Equal(t, 20, a.Peek().Value, "the superseded fetch for src==1 must never settle the cell")
}

func TestAsyncDerivedPreviousChainsAcrossRefetch(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (int, error) {
		return src * 10, nil
	})

	a.Value()
	require.Eventually(t, func() bool { return a.Peek().IsData() }, time.Second, time.Millisecond)
	assert.Equal(t, 10, a.Peek().Value)

	id.Set(2)
	a.Value()
	require.Eventually(t, func() bool {
		v := a.Peek()
		return v.IsData() && v.Value == 20
	}, time.Second, time.Millisecond)

	last := a.Peek()
	prevData, ok := last.Previous.LastData()
	require.True(t, ok)
	assert.Equal(t, 10, prevData)
}

func TestAsyncDerivedManualStartWaitsForStart(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)
	var fetches int

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (int, error) {
		fetches++
		return src * 10, nil
	}, WithManualStart[int](true))

	assert.Equal(t, AsyncIdle, a.Status(), "a manual-start cell never fetches until Start/Run is called")
	a.Value()
	a.Peek()
	assert.Equal(t, 0, fetches)

	a.Start()
	require.Eventually(t, func() bool { return a.Peek().IsData() }, time.Second, time.Millisecond)
	assert.Equal(t, 10, a.Peek().Value)
	assert.Equal(t, 1, fetches)

	a.Start() // already started, no-op
	assert.Equal(t, 1, fetches)
}

func TestAsyncDerivedRunForcesRefetchOfUnchangedSource(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)
	var fetches int

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (int, error) {
		fetches++
		return src * 10, nil
	})

	a.Value()
	require.Eventually(t, func() bool { return a.Peek().IsData() }, time.Second, time.Millisecond)
	assert.Equal(t, 1, fetches)

	a.Value() // source unchanged, no new fetch
	assert.Equal(t, 1, fetches)

	a.Run()
	require.Eventually(t, func() bool { return fetches == 2 }, time.Second, time.Millisecond)
}

func TestAsyncDerivedCancelRunningFalseLetsPriorFetchFinish(t *testing.T) {
	rt := NewRuntime()
	id := NewWritable(rt, 1)

	firstCtxDone := make(chan struct{})

	a := NewAsyncDerived(rt, func() int {
		v, _ := id.Value()
		return v
	}, func(ctx context.Context, src int) (int, error) {
		if src == 1 {
			<-ctx.Done()
			close(firstCtxDone)
			return 0, ctx.Err()
		}
		return src * 10, nil
	}, WithCancelRunning[int](false))

	a.Value()
	id.Set(2)
	a.Value()

	select {
	case <-firstCtxDone:
		t.Fatal("cancelRunning=false must not cancel the in-flight fetch for the superseded source")
	case <-time.After(50 * time.Millisecond):
	}

	require.Eventually(t, func() bool { return a.Peek().IsData() }, time.Second, time.Millisecond)
	assert.Equal(t, 20, a.Peek().Value)
}

func itoaTest(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

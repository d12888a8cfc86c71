package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapAdoptsTargetValueAndTracksUpdates(t *testing.T) {
	rt := NewRuntime()
	target := NewWritable(rt, 1)
	w := NewWritable(rt, 0)

	_, err := Wrap[int, int](w, target)
	require.NoError(t, err)

	v, _ := w.Value()
	assert.Equal(t, 1, v, "startNow adopts the target's current value by default")

	target.Set(2)
	v, _ = w.Value()
	assert.Equal(t, 2, v)
}

func TestWrapWithThenTranslatesValues(t *testing.T) {
	rt := NewRuntime()
	target := NewWritable(rt, 3)
	w := NewWritable[string](rt, "")

	_, err := Wrap[string, int](w, target, WithWrapThen[string, int](func(v int) string {
		return "n=" + itoaTest(v)
	}))
	require.NoError(t, err)

	v, _ := w.Value()
	assert.Equal(t, "n=3", v)
}

func TestWrapSameTargetTwiceIsANoOp(t *testing.T) {
	rt := NewRuntime()
	target := NewWritable(rt, 1)
	w := NewWritable(rt, 0)

	first, err := Wrap[int, int](w, target)
	require.NoError(t, err)
	second, err := Wrap[int, int](w, target)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestWrapWrongTypeWithoutThenFails(t *testing.T) {
	rt := NewRuntime()
	target := NewWritable(rt, "a string")
	w := NewWritable(rt, 0)

	_, err := Wrap[int, string](w, target)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrapTargetWrongType)
}

func TestWrapStartNowOnEmptyTargetFails(t *testing.T) {
	rt := NewRuntime()
	target := NewLazyWritable[int](rt)
	w := NewWritable(rt, 0)

	_, err := Wrap[int, int](w, target)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrapEmptyTarget)
}

func TestWrapStartNowFalseSkipsEmptyCheck(t *testing.T) {
	rt := NewRuntime()
	target := NewLazyWritable[int](rt)
	w := NewWritable(rt, 0)

	wr, err := Wrap[int, int](w, target, WithWrapStartNow[int, int](false))
	require.NoError(t, err)
	require.NotNil(t, wr)

	target.Set(7)
	v, _ := w.Value()
	assert.Equal(t, 7, v)
}

func TestWrapUnwrapStopsForwarding(t *testing.T) {
	rt := NewRuntime()
	target := NewWritable(rt, 1)
	w := NewWritable(rt, 0)

	wr, err := Wrap[int, int](w, target)
	require.NoError(t, err)

	target.Set(2)
	v, _ := w.Value()
	assert.Equal(t, 2, v)

	wr.Unwrap()
	target.Set(3)
	v, _ = w.Value()
	assert.Equal(t, 2, v, "Unwrap stops forwarding further target emissions")
}

func TestWrapDisposeTogetherLinksLifetimes(t *testing.T) {
	rt := NewRuntime()
	target := NewWritable(rt, 1)
	w := NewWritable(rt, 0)

	_, err := Wrap[int, int](w, target, WithWrapDisposeTogether[int, int](true))
	require.NoError(t, err)

	w.Dispose()
	_, err = target.Value()
	require.Error(t, err, "disposeTogether must propagate the receiver's dispose to the target")
}

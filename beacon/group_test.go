package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupDisposeAllDisposesOnlyTogetherMembers(t *testing.T) {
	rt := NewRuntime()
	g := NewGroup(rt)

	a := NewWritable(rt, 1)
	b := NewWritable(rt, 2)
	g.Add(a)
	g.Add(b, false)

	var aCalls, bCalls int
	a.Subscribe(func(int) { aCalls++ }, false, true)
	b.Subscribe(func(int) { bCalls++ }, false, true)

	g.DisposeAll()

	a.Set(99)
	b.Set(99)
	assert.Equal(t, 0, aCalls, "a was disposed together and must no longer notify")
	assert.Equal(t, 1, bCalls, "b was added with disposeTogether=false and must remain live")
}

func TestGroupResetAllSkipsNonResettableMembers(t *testing.T) {
	rt := NewRuntime()
	g := NewGroup(rt)

	w := NewLazyWritable[int](rt)
	w.Set(5)
	w.Set(9)
	g.Add(w)

	_, dispose := NewEffect(rt, func() {})
	defer dispose()
	g.Add(&groupEffectAdapter{})

	g.ResetAll()

	v, err := w.Value()
	assert.NoError(t, err)
	assert.Equal(t, 5, v, "ResetAll restores the writable's first accepted value")
}

// groupEffectAdapter is a minimal Disposable that does not implement
// Resettable, exercising Group.ResetAll's type-switch skip path.
type groupEffectAdapter struct{}

func (groupEffectAdapter) Dispose() {}

func TestGroupDescribeReportsCounts(t *testing.T) {
	rt := NewRuntime()
	g := NewGroup(rt)
	g.Add(NewWritable(rt, 1))
	g.Add(NewWritable(rt, 2), false)
	g.Add(NewWritable(rt, 3))

	report := g.Describe()
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.DisposedTogether)
}

package beacon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDisposable struct {
	disposed *bool
}

func (f fakeDisposable) Dispose() { *f.disposed = true }

func TestFamilyGetCachesByKey(t *testing.T) {
	rt := NewRuntime()
	var calls int
	fam := NewFamily(rt, func(key string) *WritableCell[string] {
		calls++
		return NewWritable(rt, "cell-for-"+key)
	})

	a := fam.Get("alice")
	b := fam.Get("alice")
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)

	c := fam.Get("bob")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, fam.Len())
}

func TestFamilyWithoutCacheRecreatesEveryGet(t *testing.T) {
	rt := NewRuntime()
	var calls int
	fam := NewFamily(rt, func(key int) *WritableCell[int] {
		calls++
		return NewWritable(rt, key*10)
	}, WithFamilyCache(false))

	fam.Get(1)
	fam.Get(1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, fam.Len(), "uncached family never populates entries")
}

func TestFamilyDisposeKeyEvictsAndDisposes(t *testing.T) {
	rt := NewRuntime()
	var flag bool
	fam := NewFamily(rt, func(key string) Disposable {
		return fakeDisposable{disposed: &flag}
	})

	fam.Get("x")
	assert.Equal(t, 1, fam.Len())

	fam.DisposeKey("x")
	assert.Equal(t, 0, fam.Len())
	assert.True(t, flag)
}

func TestFamilyDisposeAllClearsEntries(t *testing.T) {
	rt := NewRuntime()
	var flags [3]bool
	next := 0
	fam := NewFamily(rt, func(key int) Disposable {
		d := fakeDisposable{disposed: &flags[next]}
		next++
		return d
	})

	fam.Get(1)
	fam.Get(2)
	fam.Get(3)
	assert.Equal(t, 3, fam.Len())

	fam.DisposeAll()
	assert.Equal(t, 0, fam.Len())
	for _, f := range flags {
		assert.True(t, f)
	}
}

func TestFamilyClearDropsEntriesWithoutDisposing(t *testing.T) {
	rt := NewRuntime()
	var flag bool
	fam := NewFamily(rt, func(key string) Disposable {
		return fakeDisposable{disposed: &flag}
	})

	fam.Get("x")
	assert.Equal(t, 1, fam.Len())

	fam.Clear()
	assert.Equal(t, 0, fam.Len())
	assert.False(t, flag, "Clear must not dispose the cells it drops")
}

func TestFamilyKeysHashByStructuralEquality(t *testing.T) {
	rt := NewRuntime()
	type compositeKey struct {
		A int
		B string
	}
	var calls int
	fam := NewFamily(rt, func(key compositeKey) *WritableCell[int] {
		calls++
		return NewWritable(rt, key.A)
	})

	first := fam.Get(compositeKey{A: 1, B: "x"})
	second := fam.Get(compositeKey{A: 1, B: "x"})
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	fam.Get(compositeKey{A: 1, B: "y"})
	assert.Equal(t, 2, calls)
}

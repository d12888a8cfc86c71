// Package collections layers list/set/map convenience mutators over plain
// beacon.WritableCell values, the way pkg/flimsy's higher-level helpers sit on
// top of its core signal rather than the engine growing collection-specific
// cell types of its own.
package collections

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/signalgraph/beacon/beacon"
)

// ListCell is a WritableCell[[]T] with append/remove/clear helpers that copy
// before mutating, so any slice a caller previously read via Peek remains
// valid (the cell's own equality gate is bypassed via Force, since every
// mutation here is already known to be a real change).
type ListCell[T any] struct {
	*beacon.WritableCell[[]T]
}

func NewList[T any](rt *beacon.Runtime, initial []T, opts ...beacon.CellOption[[]T]) *ListCell[T] {
	return &ListCell[T]{beacon.NewWritable(rt, append([]T(nil), initial...), opts...)}
}

func (l *ListCell[T]) Append(items ...T) {
	cur, _ := l.Peek()
	next := append(append([]T(nil), cur...), items...)
	l.Force(next)
}

func (l *ListCell[T]) RemoveAt(index int) {
	cur, _ := l.Peek()
	if index < 0 || index >= len(cur) {
		return
	}
	next := append([]T(nil), cur[:index]...)
	next = append(next, cur[index+1:]...)
	l.Force(next)
}

func (l *ListCell[T]) Clear() { l.Force([]T(nil)) }

func (l *ListCell[T]) Len() int {
	cur, _ := l.Peek()
	return len(cur)
}

// SetCell is a WritableCell[mapset.Set[T]] with add/remove/clear helpers,
// backed by golang-set/v2 — the same library pkg/flimsy/observer.go uses for
// its internal listener set, here doing the job it's more commonly reached for
// in application code.
type SetCell[T comparable] struct {
	*beacon.WritableCell[mapset.Set[T]]
}

func NewSet[T comparable](rt *beacon.Runtime, initial []T, opts ...beacon.CellOption[mapset.Set[T]]) *SetCell[T] {
	return &SetCell[T]{beacon.NewWritable(rt, mapset.NewThreadUnsafeSet(initial...), opts...)}
}

func (s *SetCell[T]) Add(items ...T) {
	cur, _ := s.Peek()
	next := cur.Clone()
	next.Append(items...)
	s.Force(next)
}

func (s *SetCell[T]) Remove(items ...T) {
	cur, _ := s.Peek()
	next := cur.Clone()
	for _, it := range items {
		next.Remove(it)
	}
	s.Force(next)
}

func (s *SetCell[T]) Contains(item T) bool {
	cur, _ := s.Peek()
	return cur.Contains(item)
}

func (s *SetCell[T]) Clear() { s.Force(mapset.NewThreadUnsafeSet[T]()) }

func (s *SetCell[T]) Len() int {
	cur, _ := s.Peek()
	return cur.Cardinality()
}

// MapCell is a WritableCell[map[K]V] with set/delete/clear helpers that copy
// before mutating.
type MapCell[K comparable, V any] struct {
	*beacon.WritableCell[map[K]V]
}

func NewMap[K comparable, V any](rt *beacon.Runtime, initial map[K]V, opts ...beacon.CellOption[map[K]V]) *MapCell[K, V] {
	cloned := make(map[K]V, len(initial))
	for k, v := range initial {
		cloned[k] = v
	}
	return &MapCell[K, V]{beacon.NewWritable(rt, cloned, opts...)}
}

func (m *MapCell[K, V]) SetKey(key K, val V) {
	cur, _ := m.Peek()
	next := make(map[K]V, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[key] = val
	m.Force(next)
}

func (m *MapCell[K, V]) DeleteKey(key K) {
	cur, _ := m.Peek()
	if _, ok := cur[key]; !ok {
		return
	}
	next := make(map[K]V, len(cur))
	for k, v := range cur {
		if k != key {
			next[k] = v
		}
	}
	m.Force(next)
}

func (m *MapCell[K, V]) Get(key K) (V, bool) {
	cur, _ := m.Peek()
	v, ok := cur[key]
	return v, ok
}

func (m *MapCell[K, V]) Clear() { m.Force(map[K]V{}) }

func (m *MapCell[K, V]) Len() int {
	cur, _ := m.Peek()
	return len(cur)
}

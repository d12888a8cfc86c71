package timeops

import (
	"sync"

	"github.com/signalgraph/beacon/beacon"
)

// UndoRedo tracks a bounded history of writes to a source WritableCell and
// lets the host step backward/forward through it, per spec.md §4.7. Calling
// Undo/Redo writes the source directly, which this type observes like any
// other write — it distinguishes "a write we caused" from "a new write to
// record" with a suppression flag rather than value comparison, so a Force of
// the current value is still recorded as its own history entry. A plain Set of
// an unchanged value is dropped by the source's equality gate and not recorded.
type UndoRedo[T any] struct {
	source *beacon.WritableCell[T]
	unsub  func()

	mu      sync.Mutex
	limit   int
	history []T
	cursor  int // index into history of the "current" value
	replay  bool
}

// NewUndoRedo fails with source's own error if source cannot be peeked at
// construction time, per spec.md §4.7.
func NewUndoRedo[T any](source *beacon.WritableCell[T], historyLimit int) (*UndoRedo[T], error) {
	init, err := source.Peek()
	if err != nil {
		return nil, err
	}
	ur := &UndoRedo[T]{source: source, limit: historyLimit, history: []T{init}}
	ur.unsub = source.Subscribe(func(v T) {
		ur.mu.Lock()
		defer ur.mu.Unlock()
		if ur.replay {
			return
		}
		ur.history = ur.history[:ur.cursor+1]
		ur.history = append(ur.history, v)
		ur.cursor++
		if ur.limit > 0 && len(ur.history) > ur.limit {
			drop := len(ur.history) - ur.limit
			ur.history = ur.history[drop:]
			ur.cursor -= drop
		}
	}, false, true)
	return ur, nil
}

// CanUndo reports whether there is an earlier entry to step back to.
func (ur *UndoRedo[T]) CanUndo() bool {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	return ur.cursor > 0
}

// CanRedo reports whether there is a later entry to step forward to.
func (ur *UndoRedo[T]) CanRedo() bool {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	return ur.cursor < len(ur.history)-1
}

// Undo steps the source back to the previous history entry, if any.
func (ur *UndoRedo[T]) Undo() bool {
	ur.mu.Lock()
	if ur.cursor == 0 {
		ur.mu.Unlock()
		return false
	}
	ur.cursor--
	v := ur.history[ur.cursor]
	ur.replay = true
	ur.mu.Unlock()

	ur.source.Set(v)

	ur.mu.Lock()
	ur.replay = false
	ur.mu.Unlock()
	return true
}

// Redo steps the source forward to the next history entry, if any.
func (ur *UndoRedo[T]) Redo() bool {
	ur.mu.Lock()
	if ur.cursor >= len(ur.history)-1 {
		ur.mu.Unlock()
		return false
	}
	ur.cursor++
	v := ur.history[ur.cursor]
	ur.replay = true
	ur.mu.Unlock()

	ur.source.Set(v)

	ur.mu.Lock()
	ur.replay = false
	ur.mu.Unlock()
	return true
}

// Len reports the number of entries currently retained in history.
func (ur *UndoRedo[T]) Len() int {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	return len(ur.history)
}

func (ur *UndoRedo[T]) Dispose() { ur.unsub() }

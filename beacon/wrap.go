package beacon

// wrapSource is whatever Wrap can subscribe to: any of WritableCell,
// DerivedCell, or AsyncDerivedCell satisfy it already, since all three carry
// Subscribe/IsEmpty/OnDispose/Name.
type wrapSource[S any] interface {
	Subscribe(cb func(S), startNow, synchronous bool) func()
	IsEmpty() bool
	OnDispose(fn func())
	Name() string
	Dispose()
}

// Wrapper is the handle Wrap returns: Unwrap tears down just this one
// subscription, leaving the receiver cell itself intact.
type Wrapper[T any] struct {
	owner    *WritableCell[T]
	key      string
	unwrapFn func()
}

// Unwrap removes this wrap's subscription to its target. Idempotent.
func (wr *Wrapper[T]) Unwrap() {
	if wr.unwrapFn == nil {
		return
	}
	wr.unwrapFn()
	wr.unwrapFn = nil
	if wr.owner != nil {
		delete(wr.owner.wraps, wr.key)
	}
}

// WrapOption configures Wrap, per spec.md §4.9's wrap(target, then?,
// startNow=true, disposeTogether=false).
type WrapOption[T, S any] func(*wrapConfig[T, S])

type wrapConfig[T, S any] struct {
	then            func(S) T
	startNow        bool
	disposeTogether bool
}

// WithWrapThen supplies the translation used for each value the target
// emits, required when the receiver and target value types differ.
func WithWrapThen[T, S any](then func(S) T) WrapOption[T, S] {
	return func(c *wrapConfig[T, S]) { c.then = then }
}

// WithWrapStartNow controls whether Wrap immediately adopts the target's
// current value (the default) or only starts reacting to future emissions.
func WithWrapStartNow[T, S any](startNow bool) WrapOption[T, S] {
	return func(c *wrapConfig[T, S]) { c.startNow = startNow }
}

// WithWrapDisposeTogether links the receiver's and target's lifetimes: when
// either is disposed, the other is too, with a reentry guard so the mutual
// hooks don't loop.
func WithWrapDisposeTogether[T, S any](together bool) WrapOption[T, S] {
	return func(c *wrapConfig[T, S]) { c.disposeTogether = together }
}

// Wrap subscribes w to target, feeding every target emission into w via then
// (if supplied) or, when S and T are the same underlying type, directly. Per
// spec.md §4.9: wrapping the same target twice is a no-op that returns the
// existing Wrapper; without then across incompatible value types it fails
// with WrapTargetWrongTypeError; with startNow and an empty target it fails
// with WrapEmptyTargetError.
func Wrap[T, S any](w *WritableCell[T], target wrapSource[S], opts ...WrapOption[T, S]) (*Wrapper[T], error) {
	cfg := wrapConfig[T, S]{startNow: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	key := target.Name()
	if w.wraps == nil {
		w.wraps = map[string]*Wrapper[T]{}
	}
	if existing, ok := w.wraps[key]; ok {
		return existing, nil
	}

	if cfg.then == nil {
		var zero S
		if _, ok := any(zero).(T); !ok {
			return nil, &WrapTargetWrongTypeError{TargetName: key}
		}
	}
	if cfg.startNow && target.IsEmpty() {
		return nil, &WrapEmptyTargetError{TargetName: key}
	}

	onValue := func(v S) {
		if cfg.then != nil {
			w.Set(cfg.then(v))
			return
		}
		if tv, ok := any(v).(T); ok {
			w.Set(tv)
		}
	}
	unsubscribe := target.Subscribe(onValue, cfg.startNow, true)

	wr := &Wrapper[T]{owner: w, key: key, unwrapFn: unsubscribe}
	w.wraps[key] = wr

	if cfg.disposeTogether {
		var guarded bool
		target.OnDispose(func() {
			if guarded {
				return
			}
			guarded = true
			w.Dispose()
		})
		w.OnDispose(func() {
			if guarded {
				return
			}
			guarded = true
			target.Dispose()
		})
	}

	return wr, nil
}

package beacon

// Effect is a consumer-only node: it has no produced value and nothing can
// depend on it, but its body runs once immediately (establishing its initial
// dependency set) and again whenever a dependency's pull chain resolves to a
// real change, scheduled through the Scheduler's FIFO queue rather than run
// inline. Grounds rocket's SideEffectN / reactively.go's Effect / pkg/flimsy's
// createEffect, generalized to dynamic arity per spec.md §4.5.
type Effect struct {
	c *consumerBase
}

// EffectOption configures NewEffect. Effects have no value, so they take the
// subset of CellOption concerns that apply without one.
type EffectOption func(*effectConfig)

type effectConfig struct {
	name               string
	supportConditional bool
}

// WithEffectName attaches a diagnostic name to an Effect.
func WithEffectName(name string) EffectOption {
	return func(c *effectConfig) { c.name = name }
}

// WithEffectSupportConditional controls whether the effect re-tracks its
// dependency set on every run (true, the default) or freezes it after the
// first run (false), per spec.md §4.4's supportConditional knob.
func WithEffectSupportConditional(support bool) EffectOption {
	return func(c *effectConfig) { c.supportConditional = support }
}

// NewEffect constructs and immediately runs body once, registering whatever
// cells it reads during that run as dependencies. Returns a disposer.
func NewEffect(rt *Runtime, body func(), opts ...EffectOption) (*Effect, func()) {
	cfg := effectConfig{supportConditional: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = rt.anonName("effect")
	}
	e := &Effect{c: newConsumerBase(rt, cfg.name, cfg.supportConditional, true)}
	e.c.run = func() bool {
		body()
		return false
	}

	e.c.updateIfNecessary()

	return e, e.Dispose
}

// Dispose removes this effect from every source's dependents set and prevents
// any further scheduled runs. Idempotent.
func (e *Effect) Dispose() {
	e.c.dispose()
}

// Name returns this effect's diagnostic name.
func (e *Effect) Name() string { return e.c.name }

// IsEmpty is always false: an Effect has no produced value to be empty of,
// per spec.md §6.
func (e *Effect) IsEmpty() bool { return false }

// ListenersCount is always zero: nothing can Subscribe to an Effect, since it
// produces no value, per spec.md §6.
func (e *Effect) ListenersCount() int { return 0 }

// OnDispose registers fn to run when this effect is disposed, per spec.md §6.
func (e *Effect) OnDispose(fn func()) { e.c.addDisposeHook(fn) }

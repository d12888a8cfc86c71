package beacon

// Resettable is implemented by cells that can return to their initial value; Group.ResetAll uses it for whichever members support it (WritableCell
// does, Effect/DerivedCell/AsyncDerivedCell don't and are simply skipped).
type Resettable interface{ Reset() error }

// Group is a bulk-lifetime container: cells are added to it as they're
// constructed, and DisposeAll/ResetAll act on the whole set at once, per
// spec.md §4.10. Grounded on alien/flimsy's benchmark code building ad hoc
// groups of signals to tear down together between runs.
type Group struct {
	rt      *Runtime
	members []Disposable
	// disposeTogether mirrors spec.md §6's per-member flag: members added with
	// disposeTogether=false are tracked for Describe but skipped by DisposeAll,
	// for cells the host wants to manage its own lifetime for.
	together []bool
}

func NewGroup(rt *Runtime) *Group {
	return &Group{rt: rt}
}

// Add registers d with the group. disposeTogether defaults to true.
func (g *Group) Add(d Disposable, disposeTogether ...bool) Disposable {
	together := true
	if len(disposeTogether) > 0 {
		together = disposeTogether[0]
	}
	g.members = append(g.members, d)
	g.together = append(g.together, together)
	return d
}

// DisposeAll disposes every member added with disposeTogether (the default).
func (g *Group) DisposeAll() {
	for i, m := range g.members {
		if g.together[i] {
			m.Dispose()
		}
	}
	g.members = nil
	g.together = nil
}

// ResetAll calls Reset on every member that implements Resettable, leaving the
// rest untouched.
func (g *Group) ResetAll() {
	for _, m := range g.members {
		if r, ok := m.(Resettable); ok {
			_ = r.Reset()
		}
	}
}

// GroupReport is the small summary Describe returns.
type GroupReport struct {
	Total            int
	DisposedTogether int
}

// Describe returns a snapshot count of the group's members, per the
// SUPPLEMENTED FEATURES section: useful for tests and for cmd/beaconbench to
// print graph shape.
func (g *Group) Describe() GroupReport {
	r := GroupReport{Total: len(g.members)}
	for _, t := range g.together {
		if t {
			r.DisposedTogether++
		}
	}
	return r
}

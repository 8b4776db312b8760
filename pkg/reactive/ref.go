package reactive

// valueKey is the fixed key a Ref (and a Computed) tracks and triggers on.
const valueKey = "value"

// Ref is a boxed single-value reactive cell, used where the container
// model does not apply: primitives and rebindable bindings. Composite
// values are wrapped through the runtime on assignment.
type Ref struct {
	rt  *Runtime
	id  uint64
	raw any
	val any
}

// NewRef boxes v. Boxing an existing Ref returns it unchanged.
func (rt *Runtime) NewRef(v any) *Ref {
	if r, ok := v.(*Ref); ok {
		return r
	}
	return &Ref{rt: rt, id: nextID(), raw: v, val: rt.Wrap(v)}
}

// Get reads the boxed value, registering a dependency on the value slot.
func (r *Ref) Get() any {
	r.rt.track(r.id, valueKey)
	return r.val
}

// Peek reads the boxed value without registering a dependency.
func (r *Ref) Peek() any {
	return r.val
}

// Set replaces the boxed value, re-wrapping composites, and triggers
// only if the raw value changed.
func (r *Ref) Set(v any) {
	if sameValue(r.raw, v) {
		return
	}
	r.raw = v
	r.val = r.rt.Wrap(v)
	r.rt.trigger(r.id, valueKey)
}

package reactive

import (
	"github.com/reflow-ui/reflow/internal/errors"
)

// Computed is a lazily-recomputed, dependency-tracked cache over a
// getter. It participates in the graph on both sides: as a subscriber to
// everything the getter reads, and as a trackable source for its own
// readers.
//
// The cache stays valid while dirty is false. A trigger on any source
// flips dirty and, only on that first flip since the last read,
// propagates to the computed's own readers; recomputation happens on the
// next Get, never eagerly.
type Computed struct {
	rt     *Runtime
	id     uint64
	sub    *Subscriber
	setter func(any)
	val    any
	dirty  bool
}

// NewComputed creates a read-only computed value over getter.
func (rt *Runtime) NewComputed(getter func() any) *Computed {
	return rt.NewWritableComputed(getter, nil)
}

// NewWritableComputed creates a computed value whose writes delegate to
// setter.
func (rt *Runtime) NewWritableComputed(getter func() any, setter func(any)) *Computed {
	c := &Computed{rt: rt, id: nextID(), setter: setter, dirty: true}
	c.sub = rt.NewSubscriber(
		func() { c.val = getter() },
		Lazy(),
		WithRunScheduler(func() {
			if !c.dirty {
				c.dirty = true
				rt.trigger(c.id, valueKey)
			}
		}),
	)
	return c
}

// Get returns the cached value, recomputing first if a dependency
// changed since the last read, and registers the read against the
// computed's own key.
func (c *Computed) Get() any {
	if c.dirty {
		c.sub.Run()
		c.dirty = false
	}
	c.rt.track(c.id, valueKey)
	return c.val
}

// Peek returns the value without registering a dependency. Still
// recomputes if dirty.
func (c *Computed) Peek() any {
	if c.dirty {
		c.sub.Run()
		c.dirty = false
	}
	return c.val
}

// Set delegates to the setter. Without one the write is a policy
// violation: it is logged and discarded.
func (c *Computed) Set(v any) {
	if c.setter == nil {
		e := errors.New("R001")
		c.rt.logger.Warn(e.Message, "code", e.Code)
		return
	}
	c.setter(v)
}

// Stop detaches the computed from all of its sources permanently.
func (c *Computed) Stop() {
	c.sub.Stop()
}

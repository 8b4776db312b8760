package renderer

import (
	"time"

	"github.com/reflow-ui/reflow/pkg/reactive"
	"github.com/reflow-ui/reflow/pkg/scheduler"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

// SetupContext carries the non-reactive extras handed to a component's
// setup phase.
type SetupContext struct {
	// Attrs are the passthrough attributes: incoming props not named in
	// the component's declared prop list.
	Attrs map[string]any
}

// Component describes a component type. Using the same descriptor at
// the same tree position across renders keeps the instance alive.
type Component struct {
	// Name identifies the component in logs.
	Name string

	// Props lists the declared prop names. Incoming props outside this
	// list become passthrough attrs.
	Props []string

	// Setup runs once at mount with the reactive props and the setup
	// context; its return value becomes the instance's setup state.
	Setup func(props *reactive.Store, ctx SetupContext) map[string]any

	// Render produces the subtree description from the render context.
	// It may return a *vdom.VNode, a vnode slice, a Ref, or a primitive.
	Render func(c *Ctx) any
}

// Ctx is a component's render context: an explicit resolution chain
// over setup state, declared props, and passthrough attrs, in that
// order. Refs in setup state read and write through automatically.
type Ctx struct {
	inst *Instance
}

// Get resolves key through the chain, returning nil when no layer has
// it. A Ref found in setup state unwraps to its value.
func (c *Ctx) Get(key string) any {
	if v, ok := c.inst.setupState[key]; ok {
		if ref, isRef := v.(*reactive.Ref); isRef {
			return ref.Get()
		}
		return v
	}
	if c.inst.props != nil && c.inst.props.Has(key) {
		return c.inst.props.Get(key)
	}
	if v, ok := c.inst.attrs[key]; ok {
		return v
	}
	return nil
}

// Set writes key in setup state, writing through a Ref target when one
// is stored there. Writes to keys absent from setup state are rejected:
// props and attrs are read-only from the render context.
func (c *Ctx) Set(key string, v any) bool {
	cur, ok := c.inst.setupState[key]
	if !ok {
		return false
	}
	if ref, isRef := cur.(*reactive.Ref); isRef {
		ref.Set(v)
		return true
	}
	c.inst.setupState[key] = v
	return true
}

// Instance is the live state behind one mounted component vnode. It
// persists across re-renders of the same component at the same position
// and drives its own re-render through a scheduler-backed effect.
type Instance struct {
	r     *Renderer
	comp  *Component
	vnode *vdom.VNode

	props      *reactive.Store
	attrs      map[string]any
	setupState map[string]any
	ctx        *Ctx

	subTree *vdom.VNode
	mounted bool

	// next holds a pending replacement vnode during a parent-driven
	// update.
	next *vdom.VNode

	effect *reactive.Subscriber
	job    *scheduler.Job

	container Node
	anchor    Node
}

func newInstance(r *Renderer, vn *vdom.VNode) *Instance {
	inst := &Instance{
		r:     r,
		comp:  vn.Type.(*Component),
		vnode: vn,
	}
	inst.resolveProps(vn.Props)
	if inst.comp.Setup != nil {
		inst.setupState = inst.comp.Setup(inst.props, SetupContext{Attrs: inst.attrs})
	}
	if inst.setupState == nil {
		inst.setupState = make(map[string]any)
	}
	inst.ctx = &Ctx{inst: inst}
	return inst
}

// resolveProps partitions incoming props by the declared prop-name list
// into reactive props and plain attrs. The reconciliation key is
// neither.
func (inst *Instance) resolveProps(incoming vdom.Props) {
	declared := make(map[string]any, len(inst.comp.Props))
	attrs := make(map[string]any)
	isDeclared := make(map[string]struct{}, len(inst.comp.Props))
	for _, name := range inst.comp.Props {
		isDeclared[name] = struct{}{}
	}
	for k, v := range incoming {
		if k == "key" {
			continue
		}
		if _, ok := isDeclared[k]; ok {
			declared[k] = v
		} else {
			attrs[k] = v
		}
	}
	inst.props = inst.r.rt.WrapMap(declared)
	inst.attrs = attrs
}

// mount installs the render effect and runs it once. Trigger-driven
// reruns enqueue the instance's job; the flush collapses any number of
// triggers within one tick into a single re-render.
func (inst *Instance) mount(container, anchor Node) {
	inst.container = container
	inst.anchor = anchor

	rt := inst.r.rt
	inst.effect = rt.NewSubscriber(
		inst.renderPass,
		reactive.Lazy(),
		reactive.WithRunScheduler(func() {
			rt.Scheduler().Enqueue(inst.job)
		}),
	)
	inst.job = scheduler.NewJob(func() {
		if !inst.effect.Stopped() {
			inst.effect.Run()
		}
	})
	inst.effect.Run()
}

// update applies a pending replacement vnode synchronously by running
// the render effect directly, not through the queue.
func (inst *Instance) update() {
	inst.effect.Run()
}

// renderPass is the effect body: render under tracking, then mount or
// patch the subtree.
func (inst *Instance) renderPass() {
	r := inst.r
	if r.met != nil {
		r.met.EffectRuns.Inc()
	}

	if !inst.mounted {
		sub := inst.renderSubTree()
		r.Patch(nil, sub, inst.container, inst.anchor)
		inst.subTree = sub
		inst.mounted = true
		inst.vnode.El = sub.El
		return
	}

	if inst.next != nil {
		next := inst.next
		inst.next = nil
		inst.vnode = next
		inst.resolveProps(next.Props)
	}

	prev := inst.subTree
	sub := inst.renderSubTree()
	start := time.Now()
	r.Patch(prev, sub, r.host.Parent(r.hostNode(prev)), nil)
	if r.met != nil {
		r.met.PatchDuration.Observe(time.Since(start).Seconds())
	}
	inst.subTree = sub
	inst.vnode.El = sub.El
}

// renderSubTree renders and normalizes the subtree, then merges attrs
// under the subtree's own props so subtree values win on conflict.
func (inst *Instance) renderSubTree() *vdom.VNode {
	sub := vdom.Normalize(inst.comp.Render(inst.ctx))
	if len(inst.attrs) > 0 {
		merged := make(vdom.Props, len(inst.attrs)+len(sub.Props))
		for k, v := range inst.attrs {
			merged[k] = v
		}
		for k, v := range sub.Props {
			merged[k] = v
		}
		sub.Props = merged
	}
	return sub
}

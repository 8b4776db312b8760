package renderer

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/reflow-ui/reflow/pkg/metrics"
	"github.com/reflow-ui/reflow/pkg/reactive"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

// Renderer drives one host tree from virtual trees. It holds its own
// reactive runtime; two renderers never share graph state.
type Renderer struct {
	host   Host
	rt     *reactive.Runtime
	logger *slog.Logger
	tracer trace.Tracer
	met    *metrics.Metrics
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithMetrics attaches a collector set. Without one the renderer
// records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Renderer) {
		r.met = m
	}
}

// New creates a renderer over the given host adapter and runtime.
func New(host Host, rt *reactive.Runtime, opts ...Option) *Renderer {
	r := &Renderer{
		host:   host,
		rt:     rt,
		tracer: otel.Tracer("reflow/renderer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "renderer")
	}
	return r
}

// Runtime returns the renderer's reactive runtime.
func (r *Renderer) Runtime() *reactive.Runtime {
	return r.rt
}

// Mount renders vnode into container as a fresh tree.
func (r *Renderer) Mount(ctx context.Context, vnode *vdom.VNode, container Node) {
	_, span := r.tracer.Start(ctx, "renderer.mount",
		trace.WithAttributes(attribute.String("vnode.shape", vnode.Shape.String())))
	defer span.End()

	start := time.Now()
	r.Patch(nil, vnode, container, nil)
	if r.met != nil {
		r.met.PatchDuration.Observe(time.Since(start).Seconds())
	}
	r.logger.Debug("mounted root", "shape", vnode.Shape.String())
}

// Patch reconciles prev against next inside container, inserting new
// host nodes before anchor. A nil prev mounts next fresh; a type or key
// mismatch unmounts prev entirely and mounts next at prev's successor
// position.
func (r *Renderer) Patch(prev, next *vdom.VNode, container, anchor Node) {
	if prev == next {
		return
	}
	if prev != nil && !vdom.SameType(prev, next) {
		anchor = r.nextHostNode(prev)
		r.unmount(prev)
		prev = nil
	}

	switch {
	case next.Shape.Has(vdom.ShapeText):
		r.processText(prev, next, container, anchor)
	case next.Shape.Has(vdom.ShapeFragment):
		r.processFragment(prev, next, container, anchor)
	case next.Shape.Has(vdom.ShapeElement):
		r.processElement(prev, next, container, anchor)
	case next.Shape.Has(vdom.ShapeComponent):
		r.processComponent(prev, next, container, anchor)
	}
}

func (r *Renderer) processText(prev, next *vdom.VNode, container, anchor Node) {
	if prev == nil {
		next.El = r.host.CreateText(next.Text)
		r.host.InsertBefore(container, next.El, anchor)
		r.countPatch("text", true)
		return
	}
	// Overwrite without a change check.
	next.El = prev.El
	r.host.SetText(next.El, next.Text)
	r.countPatch("text", false)
}

func (r *Renderer) processElement(prev, next *vdom.VNode, container, anchor Node) {
	if prev == nil {
		el := r.host.CreateElement(next.Type.(string))
		next.El = el
		r.host.PatchProps(el, nil, next.Props)
		switch {
		case next.Shape.Has(vdom.ChildrenText):
			r.host.SetElementText(el, next.Text)
		case next.Shape.Has(vdom.ChildrenArray):
			r.mountChildren(next.Children, el, nil)
		}
		r.host.InsertBefore(container, el, anchor)
		r.countPatch("element", true)
		return
	}

	el := prev.El
	next.El = el
	r.host.PatchProps(el, prev.Props, next.Props)
	r.patchChildren(prev, next, el, nil)
	r.countPatch("element", false)
}

func (r *Renderer) processFragment(prev, next *vdom.VNode, container, anchor Node) {
	if prev == nil {
		next.El = r.host.CreateAnchor()
		next.Anchor = r.host.CreateAnchor()
		r.host.InsertBefore(container, next.El, anchor)
		r.host.InsertBefore(container, next.Anchor, anchor)
		r.mountChildren(next.Children, container, next.Anchor)
		r.countPatch("fragment", true)
		return
	}

	// The marker pair persists across patches.
	next.El = prev.El
	next.Anchor = prev.Anchor
	r.patchChildren(prev, next, container, next.Anchor)
	r.countPatch("fragment", false)
}

func (r *Renderer) processComponent(prev, next *vdom.VNode, container, anchor Node) {
	if prev == nil {
		inst := newInstance(r, next)
		next.Instance = inst
		inst.mount(container, anchor)
		r.countPatch("component", true)
		return
	}

	// Hand the live instance to the new vnode and apply the update
	// synchronously; trigger-driven reruns still go through the
	// scheduler.
	inst := prev.Instance.(*Instance)
	next.Instance = inst
	inst.next = next
	inst.update()
	r.countPatch("component", false)
}

func (r *Renderer) mountChildren(children []*vdom.VNode, container, anchor Node) {
	for _, c := range children {
		r.Patch(nil, c, container, anchor)
	}
}

// patchChildren branches on the previous and next children kinds.
func (r *Renderer) patchChildren(prev, next *vdom.VNode, container, anchor Node) {
	switch {
	case next.Shape.Has(vdom.ChildrenText):
		if prev.Shape.Has(vdom.ChildrenArray) {
			r.unmountChildren(prev.Children)
		}
		if prev.Text != next.Text {
			r.host.SetElementText(container, next.Text)
		}

	case next.Shape.Has(vdom.ChildrenArray):
		if prev.Shape.Has(vdom.ChildrenArray) {
			if len(prev.Children) > 0 && len(next.Children) > 0 &&
				prev.Children[0].Key != "" && next.Children[0].Key != "" {
				r.patchKeyedChildren(prev.Children, next.Children, container, anchor)
			} else {
				r.patchUnkeyedChildren(prev.Children, next.Children, container, anchor)
			}
			return
		}
		if prev.Shape.Has(vdom.ChildrenText) {
			r.host.SetElementText(container, "")
		}
		r.mountChildren(next.Children, container, anchor)

	default:
		if prev.Shape.Has(vdom.ChildrenArray) {
			r.unmountChildren(prev.Children)
		}
		if prev.Shape.Has(vdom.ChildrenText) {
			r.host.SetElementText(container, "")
		}
	}
}

// patchUnkeyedChildren aligns children by index: the common prefix is
// patched in place, surplus previous children are unmounted, surplus
// next children are mounted at the anchor.
func (r *Renderer) patchUnkeyedChildren(c1, c2 []*vdom.VNode, container, anchor Node) {
	common := len(c1)
	if len(c2) < common {
		common = len(c2)
	}
	for i := 0; i < common; i++ {
		r.Patch(c1[i], c2[i], container, nil)
	}
	if len(c1) > common {
		r.unmountChildren(c1[common:])
		return
	}
	for _, c := range c2[common:] {
		r.Patch(nil, c, container, anchor)
	}
}

// patchKeyedChildren reconciles two keyed lists: matching prefix and
// suffix sync in place, then the unresolved middle region resolves
// through a key map, with LIS-selected nodes skipping physical moves.
func (r *Renderer) patchKeyedChildren(c1, c2 []*vdom.VNode, container, parentAnchor Node) {
	i := 0
	e1 := len(c1) - 1
	e2 := len(c2) - 1

	// 1. Sync from the start.
	for i <= e1 && i <= e2 && vdom.SameType(c1[i], c2[i]) {
		r.Patch(c1[i], c2[i], container, nil)
		i++
	}
	// 2. Sync from the end.
	for i <= e1 && i <= e2 && vdom.SameType(c1[e1], c2[e2]) {
		r.Patch(c1[e1], c2[e2], container, nil)
		e1--
		e2--
	}

	// 3. Only next has remainder: mount it before the node following the
	// matched suffix.
	if i > e1 {
		if i <= e2 {
			anchor := parentAnchor
			if e2+1 < len(c2) {
				anchor = r.hostNode(c2[e2+1])
			}
			for ; i <= e2; i++ {
				r.Patch(nil, c2[i], container, anchor)
			}
		}
		return
	}

	// 4. Only previous has remainder: unmount it.
	if i > e2 {
		for ; i <= e1; i++ {
			r.unmount(c1[i])
		}
		return
	}

	// 5. Unresolved middle region on both sides.
	s1, s2 := i, i

	keyToNewIndex := make(map[string]int, e2-s2+1)
	for j := s2; j <= e2; j++ {
		if c2[j].Key != "" {
			keyToNewIndex[c2[j].Key] = j
		}
	}

	toBePatched := e2 - s2 + 1
	patched := 0
	// source maps next-middle positions to previous indices; -1 means
	// the next node has no previous counterpart.
	source := make([]int, toBePatched)
	for j := range source {
		source[j] = -1
	}

	moved := false
	maxNewIndexSoFar := 0

	for j := s1; j <= e1; j++ {
		prevChild := c1[j]
		if patched >= toBePatched {
			r.unmount(prevChild)
			continue
		}
		newIndex, ok := keyToNewIndex[prevChild.Key]
		if !ok {
			r.unmount(prevChild)
			continue
		}
		if newIndex >= maxNewIndexSoFar {
			maxNewIndexSoFar = newIndex
		} else {
			// Relative order violated; a move pass is needed.
			moved = true
		}
		source[newIndex-s2] = j
		r.Patch(prevChild, c2[newIndex], container, nil)
		patched++
	}

	var seq []int
	if moved {
		seq = longestIncreasingSubsequence(source)
	}
	k := len(seq) - 1

	// Walk backward so each node's successor is already in place.
	for j := toBePatched - 1; j >= 0; j-- {
		nextIndex := s2 + j
		nextChild := c2[nextIndex]
		anchor := parentAnchor
		if nextIndex+1 < len(c2) {
			anchor = r.hostNode(c2[nextIndex+1])
		}
		if source[j] == -1 {
			r.Patch(nil, nextChild, container, anchor)
			continue
		}
		if moved {
			if k < 0 || j != seq[k] {
				r.move(nextChild, container, anchor)
			} else {
				k--
			}
		}
	}
}

// move relocates a vnode's host span before anchor. Fragments move
// their start marker, children, and end marker; components move their
// subtree.
func (r *Renderer) move(vn *vdom.VNode, container, anchor Node) {
	switch {
	case vn.Shape.Has(vdom.ShapeComponent):
		inst := vn.Instance.(*Instance)
		r.move(inst.subTree, container, anchor)
		return
	case vn.Shape.Has(vdom.ShapeFragment):
		r.host.InsertBefore(container, vn.El, anchor)
		for _, c := range vn.Children {
			r.move(c, container, anchor)
		}
		r.host.InsertBefore(container, vn.Anchor, anchor)
	default:
		r.host.InsertBefore(container, vn.El, anchor)
	}
	if r.met != nil {
		r.met.MovesTotal.Inc()
	}
}

// Unmount removes a mounted vnode's host span and stops every render
// effect inside it.
func (r *Renderer) Unmount(vn *vdom.VNode) {
	r.unmount(vn)
}

func (r *Renderer) unmount(vn *vdom.VNode) {
	if vn == nil || vn.El == nil && !vn.Shape.Has(vdom.ShapeComponent) {
		return
	}
	switch {
	case vn.Shape.Has(vdom.ShapeComponent):
		inst := vn.Instance.(*Instance)
		inst.effect.Stop()
		r.unmount(inst.subTree)
		inst.mounted = false
	case vn.Shape.Has(vdom.ShapeFragment):
		for _, c := range vn.Children {
			r.release(c)
		}
		r.removeFragment(vn.El, vn.Anchor)
	default:
		if vn.Shape.Has(vdom.ChildrenArray) {
			for _, c := range vn.Children {
				r.release(c)
			}
		}
		if parent := r.host.Parent(vn.El); parent != nil {
			r.host.RemoveChild(parent, vn.El)
		}
	}
	if r.met != nil {
		r.met.UnmountsTotal.Inc()
	}
}

// release stops render effects in a subtree without touching the host
// tree; the host nodes leave with an ancestor's removal.
func (r *Renderer) release(vn *vdom.VNode) {
	switch {
	case vn.Shape.Has(vdom.ShapeComponent):
		inst := vn.Instance.(*Instance)
		inst.effect.Stop()
		inst.mounted = false
		r.release(inst.subTree)
	case vn.Shape.Has(vdom.ChildrenArray):
		for _, c := range vn.Children {
			r.release(c)
		}
	}
}

// removeFragment removes the start marker, every node up to the end
// marker, and the end marker itself by sibling traversal.
func (r *Renderer) removeFragment(start, end Node) {
	parent := r.host.Parent(start)
	if parent == nil {
		return
	}
	cur := start
	for cur != end {
		next := r.host.NextSibling(cur)
		r.host.RemoveChild(parent, cur)
		cur = next
	}
	r.host.RemoveChild(parent, end)
}

func (r *Renderer) unmountChildren(children []*vdom.VNode) {
	for _, c := range children {
		r.unmount(c)
	}
}

// hostNode resolves a vnode's leading host node. For fragments this is
// the start marker; for components, the subtree's leading node.
func (r *Renderer) hostNode(vn *vdom.VNode) Node {
	if vn.Shape.Has(vdom.ShapeComponent) {
		if inst, ok := vn.Instance.(*Instance); ok && inst.subTree != nil {
			return r.hostNode(inst.subTree)
		}
		return nil
	}
	return vn.El
}

// nextHostNode resolves the host node immediately after a vnode's span.
func (r *Renderer) nextHostNode(vn *vdom.VNode) Node {
	switch {
	case vn.Shape.Has(vdom.ShapeComponent):
		if inst, ok := vn.Instance.(*Instance); ok && inst.subTree != nil {
			return r.nextHostNode(inst.subTree)
		}
		return nil
	case vn.Shape.Has(vdom.ShapeFragment):
		return r.host.NextSibling(vn.Anchor)
	default:
		return r.host.NextSibling(vn.El)
	}
}

func (r *Renderer) countPatch(kind string, mount bool) {
	if r.met == nil {
		return
	}
	r.met.PatchesTotal.WithLabelValues(kind).Inc()
	if mount {
		r.met.MountsTotal.Inc()
	}
}

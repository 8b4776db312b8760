package renderer_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reflow-ui/reflow/pkg/hostmem"
	"github.com/reflow-ui/reflow/pkg/metrics"
	"github.com/reflow-ui/reflow/pkg/reactive"
	"github.com/reflow-ui/reflow/pkg/renderer"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

func newTestRenderer() (*reactive.Runtime, *hostmem.Host, *renderer.Renderer) {
	rt := reactive.New()
	h := hostmem.New()
	return rt, h, renderer.New(h, rt)
}

func li(key string) *vdom.VNode {
	return vdom.H("li", vdom.Props{"key": key}, key)
}

func ul(keys ...string) *vdom.VNode {
	items := make([]*vdom.VNode, len(keys))
	for i, k := range keys {
		items[i] = li(k)
	}
	return vdom.H("ul", nil, items)
}

func TestMountElementTree(t *testing.T) {
	_, h, r := newTestRenderer()

	vn := vdom.H("div", vdom.Props{"id": "app"}, []*vdom.VNode{
		vdom.H("h1", nil, "hello"),
		vdom.Text("world"),
	})
	r.Mount(context.Background(), vn, h.Root)

	want := `<div id="app"><h1>hello</h1>world</div>`
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestTextPatchReusesNode(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := vdom.Text("a")
	r.Mount(context.Background(), prev, h.Root)
	node := h.Root.Children()[0]

	next := vdom.Text("b")
	r.Patch(prev, next, h.Root, nil)

	if got := h.HTML(); got != "b" {
		t.Errorf("expected b, got %s", got)
	}
	if h.Root.Children()[0] != node {
		t.Error("expected the host text node to be reused in place")
	}
}

func TestElementPropsDiff(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := vdom.H("div", vdom.Props{"class": "old", "title": "x"}, nil)
	r.Mount(context.Background(), prev, h.Root)

	next := vdom.H("div", vdom.Props{"class": "new"}, nil)
	r.Patch(prev, next, h.Root, nil)

	el := h.Root.Children()[0]
	if el.Attrs["class"] != "new" {
		t.Errorf("expected class new, got %q", el.Attrs["class"])
	}
	if _, still := el.Attrs["title"]; still {
		t.Error("expected dropped prop to be removed")
	}
}

func TestTypeMismatchRemounts(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := vdom.H("span", nil, "a")
	r.Mount(context.Background(), prev, h.Root)
	// A trailing sibling pins the insertion position.
	tail := vdom.H("footer", nil, nil)
	r.Patch(nil, tail, h.Root, nil)

	next := vdom.H("div", nil, "a")
	r.Patch(prev, next, h.Root, nil)

	want := `<div>a</div><footer></footer>`
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestUnkeyedDiffSurplusUnmount(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := vdom.H("ul", nil, []*vdom.VNode{
		vdom.H("li", nil, "a"),
		vdom.H("li", nil, "b"),
		vdom.H("li", nil, "c"),
	})
	r.Mount(context.Background(), prev, h.Root)
	kept := h.Root.Children()[0].Children()[0]
	removalsBefore := h.Removals

	next := vdom.H("ul", nil, []*vdom.VNode{
		vdom.H("li", nil, "z"),
	})
	r.Patch(prev, next, h.Root, nil)

	if got := h.Removals - removalsBefore; got != 2 {
		t.Errorf("expected exactly 2 removals, got %d", got)
	}
	if got := h.HTML(); got != "<ul><li>z</li></ul>" {
		t.Errorf("unexpected tree: %s", got)
	}
	if h.Root.Children()[0].Children()[0] != kept {
		t.Error("expected index 0 to be patched in place")
	}
}

func TestKeyedDiffIdempotent(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := ul("a", "b", "c")
	r.Mount(context.Background(), prev, h.Root)
	h.Moves = 0

	next := ul("a", "b", "c")
	r.Patch(prev, next, h.Root, nil)

	if h.Moves != 0 {
		t.Errorf("expected zero moves for an identical list, got %d", h.Moves)
	}
}

func TestKeyedDiffFullReversal(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := ul("a", "b", "c", "d")
	r.Mount(context.Background(), prev, h.Root)

	next := ul("d", "c", "b", "a")
	r.Patch(prev, next, h.Root, nil)

	want := "<ul><li>d</li><li>c</li><li>b</li><li>a</li></ul>"
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := len(h.Root.Children()[0].Children()); got != 4 {
		t.Errorf("expected each node exactly once, got %d children", got)
	}
}

func TestKeyedDiffMinimumMoves(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := ul("a", "b", "c")
	r.Mount(context.Background(), prev, h.Root)
	h.Moves = 0

	next := ul("b", "c", "a", "e")
	r.Patch(prev, next, h.Root, nil)

	want := "<ul><li>b</li><li>c</li><li>a</li><li>e</li></ul>"
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	// Only a moves; b and c sit on the increasing subsequence, e mounts fresh.
	if h.Moves != 1 {
		t.Errorf("expected exactly 1 move, got %d", h.Moves)
	}
}

func TestKeyedDiffMiddleInsertAndRemove(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := ul("a", "b", "c", "d")
	r.Mount(context.Background(), prev, h.Root)

	next := ul("a", "x", "c", "d")
	r.Patch(prev, next, h.Root, nil)

	want := "<ul><li>a</li><li>x</li><li>c</li><li>d</li></ul>"
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestArrayChildrenToTextChildren(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := ul("a", "b")
	r.Mount(context.Background(), prev, h.Root)

	next := vdom.H("ul", nil, "empty")
	r.Patch(prev, next, h.Root, nil)

	if got := h.HTML(); got != "<ul>empty</ul>" {
		t.Errorf("expected text children, got %s", got)
	}
}

func TestFragmentUnmountRemovesSpanOnly(t *testing.T) {
	_, h, r := newTestRenderer()

	head := vdom.H("span", nil, "x")
	r.Mount(context.Background(), head, h.Root)

	frag := vdom.Fragment(li("a"), li("b"))
	r.Patch(nil, frag, h.Root, nil)

	tail := vdom.H("span", nil, "y")
	r.Patch(nil, tail, h.Root, nil)

	// span, start marker, li, li, end marker, span.
	if got := len(h.Root.Children()); got != 6 {
		t.Fatalf("expected 6 host nodes after mount, got %d", got)
	}

	r.Unmount(frag)

	if got := len(h.Root.Children()); got != 2 {
		t.Errorf("expected only the spans to survive, got %d nodes", got)
	}
	if got := h.HTML(); got != "<span>x</span><span>y</span>" {
		t.Errorf("unexpected tree: %s", got)
	}
}

func TestFragmentPatchKeepsMarkers(t *testing.T) {
	_, h, r := newTestRenderer()

	prev := vdom.Fragment(li("a"), li("b"))
	r.Mount(context.Background(), prev, h.Root)

	next := vdom.Fragment(li("b"), li("a"), li("c"))
	r.Patch(prev, next, h.Root, nil)

	if got := h.HTML(); got != "<li>b</li><li>a</li><li>c</li>" {
		t.Errorf("unexpected tree: %s", got)
	}
	if next.El != prev.El || next.Anchor != prev.Anchor {
		t.Error("expected the marker pair to persist across patches")
	}
}

func counterComponent(rt *reactive.Runtime, renders *int, count **reactive.Ref) *renderer.Component {
	return &renderer.Component{
		Name:  "Counter",
		Props: []string{"title"},
		Setup: func(props *reactive.Store, ctx renderer.SetupContext) map[string]any {
			c := rt.NewRef(0)
			*count = c
			return map[string]any{"count": c}
		},
		Render: func(c *renderer.Ctx) any {
			*renders++
			title := c.Get("title")
			n := c.Get("count")
			return vdom.H("div", vdom.Props{"class": "counter"}, []*vdom.VNode{
				vdom.H("h2", nil, title),
				vdom.H("p", nil, n),
			})
		},
	}
}

func TestComponentMountAndContextChain(t *testing.T) {
	rt, h, r := newTestRenderer()

	renders := 0
	var count *reactive.Ref
	comp := counterComponent(rt, &renders, &count)

	vn := vdom.New(comp, vdom.Props{"title": "T", "data-x": "1"}, nil)
	r.Mount(context.Background(), vn, h.Root)

	if renders != 1 {
		t.Fatalf("expected 1 render, got %d", renders)
	}
	// data-x is undeclared, so it lands on the subtree as a passthrough attr.
	want := `<div class="counter" data-x="1"><h2>T</h2><p>0</p></div>`
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestComponentRerendersOncePerFlush(t *testing.T) {
	rt, h, r := newTestRenderer()

	renders := 0
	var count *reactive.Ref
	comp := counterComponent(rt, &renders, &count)

	vn := vdom.New(comp, vdom.Props{"title": "T"}, nil)
	r.Mount(context.Background(), vn, h.Root)

	// Two writes within one tick collapse into a single re-render.
	count.Set(1)
	count.Set(2)
	if renders != 1 {
		t.Fatalf("expected no synchronous re-render, got %d", renders)
	}

	rt.Scheduler().Flush()
	if renders != 2 {
		t.Errorf("expected one re-render per flush, got %d", renders)
	}
	want := `<div class="counter"><h2>T</h2><p>2</p></div>`
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestComponentPropUpdateIsSynchronous(t *testing.T) {
	rt, h, r := newTestRenderer()

	renders := 0
	var count *reactive.Ref
	comp := counterComponent(rt, &renders, &count)

	prev := vdom.New(comp, vdom.Props{"title": "T"}, nil)
	r.Mount(context.Background(), prev, h.Root)

	next := vdom.New(comp, vdom.Props{"title": "U"}, nil)
	r.Patch(prev, next, h.Root, nil)

	if renders != 2 {
		t.Errorf("expected synchronous update render, got %d", renders)
	}
	want := `<div class="counter"><h2>U</h2><p>0</p></div>`
	if got := h.HTML(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestComponentUnmountStopsRenderEffect(t *testing.T) {
	rt, h, r := newTestRenderer()

	renders := 0
	var count *reactive.Ref
	comp := counterComponent(rt, &renders, &count)

	vn := vdom.New(comp, vdom.Props{"title": "T"}, nil)
	r.Mount(context.Background(), vn, h.Root)
	r.Unmount(vn)

	if got := len(h.Root.Children()); got != 0 {
		t.Errorf("expected empty host tree after unmount, got %d nodes", got)
	}

	// The render effect must not rerun for triggers after unmount.
	count.Set(5)
	rt.Scheduler().Flush()
	if renders != 1 {
		t.Errorf("expected no render after unmount, got %d", renders)
	}
}

func TestContextWriteRules(t *testing.T) {
	rt, h, r := newTestRenderer()

	var ctx *renderer.Ctx
	comp := &renderer.Component{
		Name:  "W",
		Props: []string{"title"},
		Setup: func(props *reactive.Store, _ renderer.SetupContext) map[string]any {
			return map[string]any{"count": rt.NewRef(1)}
		},
		Render: func(c *renderer.Ctx) any {
			ctx = c
			return vdom.H("div", nil, c.Get("count"))
		},
	}

	vn := vdom.New(comp, vdom.Props{"title": "T"}, nil)
	r.Mount(context.Background(), vn, h.Root)

	// Setup-state keys accept writes, through the boxed ref.
	if !ctx.Set("count", 9) {
		t.Error("expected setup-state write to succeed")
	}
	rt.Scheduler().Flush()
	if got := h.HTML(); got != "<div>9</div>" {
		t.Errorf("expected ref write-through to re-render, got %s", got)
	}

	// Declared props and unknown keys reject writes.
	if ctx.Set("title", "nope") {
		t.Error("expected prop write to be rejected")
	}
	if ctx.Set("missing", 1) {
		t.Error("expected unknown key write to be rejected")
	}
}

func TestAttrsDoNotOverrideSubtreeProps(t *testing.T) {
	_, h, r := newTestRenderer()

	comp := &renderer.Component{
		Name: "Styled",
		Render: func(c *renderer.Ctx) any {
			return vdom.H("div", vdom.Props{"class": "inner"}, nil)
		},
	}

	vn := vdom.New(comp, vdom.Props{"class": "outer"}, nil)
	r.Mount(context.Background(), vn, h.Root)

	if got := h.Root.Children()[0].Attrs["class"]; got != "inner" {
		t.Errorf("expected subtree prop to win, got %q", got)
	}
}

func BenchmarkKeyedReversal(b *testing.B) {
	_, h, r := newTestRenderer()

	keys := make([]string, 64)
	reversed := make([]string, 64)
	for i := range keys {
		keys[i] = string(rune('!' + i))
		reversed[len(keys)-1-i] = keys[i]
	}

	cur := ul(keys...)
	r.Mount(context.Background(), cur, h.Root)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next := ul(reversed...)
		r.Patch(cur, next, h.Root, nil)
		cur = next
		keys, reversed = reversed, keys
	}
}

func TestMountObservesPatchDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(metrics.WithRegistry(reg))

	rt := reactive.New()
	h := hostmem.New()
	r := renderer.New(h, rt, renderer.WithMetrics(met))

	r.Mount(context.Background(), ul("a", "b"), h.Root)

	fams, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var samples uint64
	for _, f := range fams {
		if f.GetName() == "reflow_patch_duration_seconds" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	if samples == 0 {
		t.Error("expected a patch duration sample after mount")
	}
}

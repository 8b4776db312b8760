package vdom

import (
	"fmt"
	"strconv"

	"github.com/reflow-ui/reflow/pkg/reactive"
)

// Shape is the bitmask classifying a virtual node: one node-kind bit
// combined with at most one children-kind bit.
type Shape uint8

const (
	ShapeElement Shape = 1 << iota
	ShapeText
	ShapeFragment
	ShapeComponent

	ChildrenText
	ChildrenArray
)

// Has reports whether the shape contains the given bits.
func (s Shape) Has(flag Shape) bool {
	return s&flag != 0
}

// String returns a readable form of the node-kind bit.
func (s Shape) String() string {
	switch {
	case s.Has(ShapeElement):
		return "Element"
	case s.Has(ShapeText):
		return "Text"
	case s.Has(ShapeFragment):
		return "Fragment"
	case s.Has(ShapeComponent):
		return "Component"
	default:
		return "Unknown"
	}
}

// marker is the sentinel node type for text and fragment nodes.
type marker struct{ name string }

func (m *marker) String() string { return m.name }

// TextType and FragmentType are the sentinel types distinguishing text
// and fragment nodes from host elements and components.
var (
	TextType     = &marker{name: "text"}
	FragmentType = &marker{name: "fragment"}
)

// Props holds a node's attributes, properties, and event handlers.
type Props map[string]any

// VNode is a virtual node. Type is a host-tag string, TextType,
// FragmentType, or a component descriptor; anything that is none of the
// first three classifies as a component.
type VNode struct {
	Type     any
	Shape    Shape
	Key      string
	Props    Props
	Children []*VNode
	Text     string

	// El is the associated live host node: the element or text node for
	// element/text vnodes, the start marker for fragments, and the
	// subtree's host node for components.
	El any

	// Anchor is the fragment end marker delimiting the fragment's span.
	Anchor any

	// Instance is the component instance owning this vnode, set by the
	// renderer. Stored as any to avoid a dependency cycle.
	Instance any
}

// New creates a virtual node, classifying its shape from the type and
// the runtime type of children. children may be a string or numeric
// value (text children), a []*VNode (array children), or nil.
func New(typ any, props Props, children any) *VNode {
	vn := &VNode{
		Type:  typ,
		Props: props,
		Shape: classify(typ),
	}

	if props != nil {
		if k, ok := props["key"]; ok {
			vn.Key = keyString(k)
		}
	}

	switch c := children.(type) {
	case nil:
	case string:
		vn.Text = c
		vn.Shape |= ChildrenText
	case int:
		vn.Text = strconv.Itoa(c)
		vn.Shape |= ChildrenText
	case int64:
		vn.Text = strconv.FormatInt(c, 10)
		vn.Shape |= ChildrenText
	case float64:
		vn.Text = strconv.FormatFloat(c, 'f', -1, 64)
		vn.Shape |= ChildrenText
	case []*VNode:
		vn.Children = c
		vn.Shape |= ChildrenArray
	default:
		vn.Text = fmt.Sprintf("%v", c)
		vn.Shape |= ChildrenText
	}

	return vn
}

// classify maps a node type to its shape bit.
func classify(typ any) Shape {
	switch typ {
	case TextType:
		return ShapeText
	case FragmentType:
		return ShapeFragment
	}
	if _, ok := typ.(string); ok {
		return ShapeElement
	}
	return ShapeComponent
}

// keyString stringifies a key prop.
func keyString(k any) string {
	switch v := k.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// SameType reports whether two vnodes describe "the same node" for
// reconciliation: identical type and key.
func SameType(a, b *VNode) bool {
	return a != nil && b != nil && a.Type == b.Type && a.Key == b.Key
}

// Normalize coerces a render result into a vnode: a []*VNode becomes a
// fragment wrapping the element-wise normalized slice, a reactive Ref
// unwraps its value first, an existing *VNode passes through, and
// anything else becomes a text node from its string conversion.
func Normalize(v any) *VNode {
	switch t := v.(type) {
	case *VNode:
		return t
	case []*VNode:
		kids := make([]*VNode, len(t))
		for i, c := range t {
			kids[i] = Normalize(c)
		}
		return New(FragmentType, nil, kids)
	case []any:
		kids := make([]*VNode, len(t))
		for i, c := range t {
			kids[i] = Normalize(c)
		}
		return New(FragmentType, nil, kids)
	case *reactive.Ref:
		return Normalize(t.Get())
	case string:
		return New(TextType, nil, t)
	default:
		return New(TextType, nil, fmt.Sprintf("%v", v))
	}
}

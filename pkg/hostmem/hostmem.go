// Package hostmem is an in-memory host tree. It backs tests and demos
// and is the reference implementation of the renderer.Host contract,
// including the prop-application rules for class, style, event
// handlers, direct element properties, and generic attributes.
package hostmem

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/reflow-ui/reflow/pkg/renderer"
	"github.com/reflow-ui/reflow/pkg/vdom"
)

// Kind distinguishes element nodes from text nodes. Fragment markers
// are text nodes with empty content.
type Kind int

const (
	KindElement Kind = iota
	KindText
)

// Node is one in-memory host node.
type Node struct {
	Kind Kind
	Tag  string
	Text string

	Attrs     map[string]string
	Style     map[string]string
	Fields    map[string]any
	Listeners map[string]func(any)

	parent   *Node
	children []*Node
}

// Children returns the node's children in order.
func (n *Node) Children() []*Node {
	return n.children
}

// ParentNode returns the node's parent, or nil.
func (n *Node) ParentNode() *Node {
	return n.parent
}

// Dispatch invokes the handler registered for event with the payload,
// reporting whether a handler existed.
func (n *Node) Dispatch(event string, payload any) bool {
	fn, ok := n.Listeners[event]
	if !ok {
		return false
	}
	fn(payload)
	return true
}

// Host implements renderer.Host over an in-memory tree.
type Host struct {
	// Root is the mount container.
	Root *Node

	// Moves counts InsertBefore calls on already-attached nodes.
	Moves int
	// Removals counts RemoveChild calls.
	Removals int
}

// New creates a host with an empty root container.
func New() *Host {
	return &Host{Root: newElement("root")}
}

func newElement(tag string) *Node {
	return &Node{
		Kind:      KindElement,
		Tag:       tag,
		Attrs:     make(map[string]string),
		Style:     make(map[string]string),
		Fields:    make(map[string]any),
		Listeners: make(map[string]func(any)),
	}
}

// CreateElement creates a detached element node.
func (h *Host) CreateElement(tag string) renderer.Node {
	return newElement(tag)
}

// CreateText creates a detached text node.
func (h *Host) CreateText(text string) renderer.Node {
	return &Node{Kind: KindText, Text: text}
}

// CreateAnchor creates an empty text node for fragment markers.
func (h *Host) CreateAnchor() renderer.Node {
	return &Node{Kind: KindText}
}

// InsertBefore attaches node under container before anchor, or appends
// when anchor is nil. An attached node detaches from its old position
// first.
func (h *Host) InsertBefore(container, node, anchor renderer.Node) {
	parent := container.(*Node)
	n := node.(*Node)
	if n.parent != nil {
		detach(n)
		h.Moves++
	}
	n.parent = parent

	if anchor == nil {
		parent.children = append(parent.children, n)
		return
	}
	at := anchor.(*Node)
	for i, c := range parent.children {
		if c == at {
			parent.children = append(parent.children[:i], append([]*Node{n}, parent.children[i:]...)...)
			return
		}
	}
	parent.children = append(parent.children, n)
}

// RemoveChild detaches node from parent. Removing a node that is not a
// child is a no-op.
func (h *Host) RemoveChild(parent, node renderer.Node) {
	n := node.(*Node)
	if n.parent != parent.(*Node) {
		return
	}
	detach(n)
	h.Removals++
}

func detach(n *Node) {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// SetText replaces a text node's content.
func (h *Host) SetText(node renderer.Node, text string) {
	node.(*Node).Text = text
}

// SetElementText replaces an element's children with one text node.
// Empty text just clears the children.
func (h *Host) SetElementText(el renderer.Node, text string) {
	n := el.(*Node)
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	if text != "" {
		t := &Node{Kind: KindText, Text: text, parent: n}
		n.children = append(n.children, t)
	}
}

// Parent returns the node's parent, or nil when detached.
func (h *Host) Parent(node renderer.Node) renderer.Node {
	p := node.(*Node).parent
	if p == nil {
		return nil
	}
	return p
}

// NextSibling returns the node immediately after node, or nil.
func (h *Host) NextSibling(node renderer.Node) renderer.Node {
	n := node.(*Node)
	p := n.parent
	if p == nil {
		return nil
	}
	for i, c := range p.children {
		if c == n && i+1 < len(p.children) {
			return p.children[i+1]
		}
	}
	return nil
}

// directFields are keys assigned straight onto the element rather than
// treated as attributes. Matching is case-sensitive.
var directFields = map[string]bool{
	"value":    false,
	"checked":  true,
	"disabled": true,
	"selected": true,
	"multiple": true,
	"muted":    true,
	"readOnly": true,
}

// PatchProps applies the difference between two prop maps to an element.
func (h *Host) PatchProps(el renderer.Node, oldProps, newProps vdom.Props) {
	n := el.(*Node)
	for k, v := range newProps {
		if oldProps != nil && sameProp(oldProps[k], v) {
			continue
		}
		h.applyProp(n, k, v)
	}
	for k := range oldProps {
		if k == "key" {
			continue
		}
		if _, still := newProps[k]; !still {
			h.removeProp(n, k)
		}
	}
}

// sameProp suppresses reapplication of unchanged scalar props.
// Composites and handlers are not comparable and always reapply.
func sameProp(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return a == b
	}
	return false
}

func (h *Host) applyProp(n *Node, key string, val any) {
	switch {
	case key == "key":
		// Reconciliation metadata, never rendered.

	case key == "class":
		n.Attrs["class"] = classString(val)

	case key == "style":
		next := styleMap(val)
		for k := range n.Style {
			if _, still := next[k]; !still {
				delete(n.Style, k)
			}
		}
		for k, v := range next {
			n.Style[k] = v
		}

	case isEventKey(key):
		event := strings.ToLower(key[2:])
		delete(n.Listeners, event)
		switch fn := val.(type) {
		case func(any):
			n.Listeners[event] = fn
		case func():
			n.Listeners[event] = func(any) { fn() }
		}

	case isDirectField(key):
		if directFields[key] {
			// Empty string on a boolean field means presence.
			if s, ok := val.(string); ok && s == "" {
				val = true
			}
		}
		n.Fields[key] = val

	default:
		// Generic attribute: false and nil remove, everything else sets
		// as a string.
		if val == nil || val == false {
			delete(n.Attrs, key)
			return
		}
		n.Attrs[key] = fmt.Sprintf("%v", val)
	}
}

func (h *Host) removeProp(n *Node, key string) {
	switch {
	case key == "class":
		delete(n.Attrs, "class")
	case key == "style":
		n.Style = make(map[string]string)
	case isEventKey(key):
		delete(n.Listeners, strings.ToLower(key[2:]))
	case isDirectField(key):
		delete(n.Fields, key)
	default:
		delete(n.Attrs, key)
	}
}

// isEventKey matches the handler shape: an "on" prefix followed by a
// remainder that does not start with a lowercase letter.
func isEventKey(key string) bool {
	if len(key) <= 2 || !strings.HasPrefix(key, "on") {
		return false
	}
	c := key[2]
	return c < 'a' || c > 'z'
}

func isDirectField(key string) bool {
	_, ok := directFields[key]
	return ok
}

func classString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprintf("%v", p))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func styleMap(val any) map[string]string {
	out := make(map[string]string)
	switch v := val.(type) {
	case map[string]string:
		for k, s := range v {
			out[k] = s
		}
	case map[string]any:
		for k, s := range v {
			out[k] = fmt.Sprintf("%v", s)
		}
	}
	return out
}

// HTML serializes the root's children. Fragment markers render as
// nothing; attributes and style keys come out sorted for stable
// comparison in tests.
func (h *Host) HTML() string {
	var b strings.Builder
	for _, c := range h.Root.children {
		writeNode(&b, c)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n.Kind == KindText {
		b.WriteString(html.EscapeString(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)

	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%q", k, n.Attrs[k])
	}

	if len(n.Style) > 0 {
		sk := make([]string, 0, len(n.Style))
		for k := range n.Style {
			sk = append(sk, k)
		}
		sort.Strings(sk)
		parts := make([]string, 0, len(sk))
		for _, k := range sk {
			parts = append(parts, k+":"+n.Style[k])
		}
		fmt.Fprintf(b, " style=%q", strings.Join(parts, ";"))
	}

	b.WriteByte('>')
	for _, c := range n.children {
		writeNode(b, c)
	}
	fmt.Fprintf(b, "</%s>", n.Tag)
}

package renderer

import (
	"github.com/reflow-ui/reflow/pkg/vdom"
)

// Node is an opaque host-tree node handle. Its concrete type belongs to
// the Host implementation; the renderer only passes handles back in.
type Node = any

// Host is the adapter contract between the reconciler and a concrete
// display tree. Implementations must tolerate a nil anchor in
// InsertBefore (append) and removal of a node that is already detached.
type Host interface {
	// CreateElement creates an element node for a host tag.
	CreateElement(tag string) Node

	// CreateText creates a text node with the given content.
	CreateText(text string) Node

	// CreateAnchor creates a zero-width text node used as a fragment
	// boundary marker.
	CreateAnchor() Node

	// InsertBefore inserts node into container immediately before
	// anchor, or appends when anchor is nil. Inserting an attached node
	// moves it.
	InsertBefore(container, node, anchor Node)

	// RemoveChild detaches node from parent.
	RemoveChild(parent, node Node)

	// SetText replaces a text node's content.
	SetText(node Node, text string)

	// SetElementText replaces an element's entire child content with a
	// single run of text.
	SetElementText(el Node, text string)

	// PatchProps applies the difference between two prop maps to an
	// element, per the host's attribute, style, and event rules.
	PatchProps(el Node, oldProps, newProps vdom.Props)

	// Parent returns the node's current parent, or nil when detached.
	Parent(node Node) Node

	// NextSibling returns the node immediately following node under the
	// same parent, or nil.
	NextSibling(node Node) Node
}

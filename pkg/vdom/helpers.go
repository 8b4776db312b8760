package vdom

// H creates an element node for a host tag. children takes the same
// forms New accepts: a string or number for text content, a []*VNode
// slice, or nil.
func H(tag string, props Props, children any) *VNode {
	return New(tag, props, children)
}

// Text creates a standalone text node.
func Text(s string) *VNode {
	return New(TextType, nil, s)
}

// Fragment groups children without introducing a host element.
func Fragment(children ...*VNode) *VNode {
	return New(FragmentType, nil, children)
}

// Keyed returns a copy of props with the reconciliation key set,
// creating the map when props is nil.
func Keyed(key string, props Props) Props {
	out := make(Props, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out["key"] = key
	return out
}

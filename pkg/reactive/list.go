package reactive

import (
	"reflect"
	"strconv"
)

// lengthKey is the synthetic key length-dependent computations track, so
// writes that alter the list's length as a side effect rerun them.
const lengthKey = "length"

// List is the array-like reactive container. Index reads track the
// decimal index key; Len tracks the synthetic "length" key. Writes that
// grow the list fire an extra trigger on "length".
type List struct {
	rt  *Runtime
	id  uint64
	src []any
}

// WrapSlice returns the reactive list for xs. Wrapping the same slice
// twice returns the same list, keyed by the slice's backing array.
// Empty slices have no backing identity and wrap fresh; container reads
// keep such wrappers stable by caching them in the owning slot.
func (rt *Runtime) WrapSlice(xs []any) *List {
	if len(xs) == 0 {
		return &List{rt: rt, id: nextID(), src: xs}
	}
	ptr := reflect.ValueOf(xs).Pointer()
	if l, ok := rt.lists[ptr]; ok {
		return l
	}
	l := &List{rt: rt, id: nextID(), src: xs}
	rt.lists[ptr] = l
	return l
}

// Index reads the element at i, registering a dependency on that index.
// Out-of-range reads return nil (and still register, so a later growth
// into that index reruns the reader).
func (l *List) Index(i int) any {
	l.rt.track(l.id, strconv.Itoa(i))
	if i < 0 || i >= len(l.src) {
		return nil
	}
	return l.wrapSlot(i)
}

// Len returns the length, registering a dependency on the "length" key.
func (l *List) Len() int {
	l.rt.track(l.id, lengthKey)
	return len(l.src)
}

// Set writes the element at i. Assigning past the end grows the list
// with nil padding and triggers "length" in addition to the index key.
// Negative indices are ignored.
func (l *List) Set(i int, v any) {
	if i < 0 {
		return
	}
	grew := false
	for i >= len(l.src) {
		l.src = append(l.src, nil)
		grew = true
	}
	old := l.src[i]
	l.src[i] = v
	if !sameValue(old, v) {
		l.rt.trigger(l.id, strconv.Itoa(i))
	}
	if grew {
		l.rt.trigger(l.id, lengthKey)
	}
}

// Append adds v at the end, triggering the new index and "length".
func (l *List) Append(v any) {
	i := len(l.src)
	l.src = append(l.src, v)
	l.rt.trigger(l.id, strconv.Itoa(i))
	l.rt.trigger(l.id, lengthKey)
}

// SetLen resizes the list, truncating or growing with nil padding.
// Triggers "length" only when the length actually changed; truncation
// also triggers each removed index.
func (l *List) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	old := len(l.src)
	if n == old {
		return
	}
	if n < old {
		removed := l.src[n:]
		l.src = l.src[:n]
		for i := range removed {
			l.rt.trigger(l.id, strconv.Itoa(n+i))
		}
	} else {
		for len(l.src) < n {
			l.src = append(l.src, nil)
		}
	}
	l.rt.trigger(l.id, lengthKey)
}

// Peek reads the element at i without registering a dependency.
func (l *List) Peek(i int) any {
	if i < 0 || i >= len(l.src) {
		return nil
	}
	return l.wrapSlot(i)
}

// wrapSlot wraps a composite element and writes the wrapper back into
// the slot, so every reader of the index shares one wrapper even when
// the backing value has no identity of its own (empty slices).
func (l *List) wrapSlot(i int) any {
	switch l.src[i].(type) {
	case map[string]any, []any:
		w := l.rt.Wrap(l.src[i])
		l.src[i] = w
		return w
	}
	return l.src[i]
}

// Source returns the underlying slice. Mutating it directly bypasses
// triggering.
func (l *List) Source() []any {
	return l.src
}

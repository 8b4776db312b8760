package reactive

import (
	"reflect"
	"sort"
)

// Store is the object-like reactive container. Reads go through the
// dependency graph keyed by property name; writes trigger only when the
// value actually changed. Nested composite values are wrapped lazily, on
// first read, not at wrap time.
//
// A Store is a transparent view over its source map: the application owns
// the map, the store has no independent lifetime.
type Store struct {
	rt  *Runtime
	id  uint64
	src map[string]any
}

// WrapMap returns the reactive store for m. Wrapping the same map twice
// returns the same store (identity-stable wrapping keyed by the map's
// identity); wrapping a nil map creates a fresh empty source.
func (rt *Runtime) WrapMap(m map[string]any) *Store {
	if m == nil {
		m = make(map[string]any)
	}
	ptr := reflect.ValueOf(m).Pointer()
	if s, ok := rt.stores[ptr]; ok {
		return s
	}
	s := &Store{rt: rt, id: nextID(), src: m}
	rt.stores[ptr] = s
	return s
}

// Wrap makes v reactive if it is a composite value: maps become stores,
// []any slices become lists. Values that are already reactive wrappers
// pass through unchanged, as does everything else.
func (rt *Runtime) Wrap(v any) any {
	switch t := v.(type) {
	case *Store, *List, *Ref, *Computed:
		return v
	case map[string]any:
		return rt.WrapMap(t)
	case []any:
		return rt.WrapSlice(t)
	}
	return v
}

// Get reads a property, registering a dependency edge for the executing
// subscriber. Composite values come back wrapped.
func (s *Store) Get(key string) any {
	s.rt.track(s.id, key)
	return s.wrapSlot(key)
}

// Peek reads a property without registering a dependency.
func (s *Store) Peek(key string) any {
	return s.wrapSlot(key)
}

// wrapSlot wraps a composite value and writes the wrapper back into the
// slot, so every reader of the key shares one wrapper even when the
// backing value has no identity of its own (empty slices).
func (s *Store) wrapSlot(key string) any {
	switch s.src[key].(type) {
	case map[string]any, []any:
		w := s.rt.Wrap(s.src[key])
		s.src[key] = w
		return w
	}
	return s.src[key]
}

// Has reports whether the property exists, registering a dependency.
func (s *Store) Has(key string) bool {
	s.rt.track(s.id, key)
	_, ok := s.src[key]
	return ok
}

// Set writes a property and triggers its subscribers if the value
// changed. Writing the currently stored value never triggers.
func (s *Store) Set(key string, v any) {
	old, had := s.src[key]
	s.src[key] = v
	if !had || !sameValue(old, v) {
		s.rt.trigger(s.id, key)
	}
}

// Delete removes a property, triggering its subscribers if it existed.
func (s *Store) Delete(key string) {
	if _, had := s.src[key]; !had {
		return
	}
	delete(s.src, key)
	s.rt.trigger(s.id, key)
}

// Keys returns the property names in sorted order. Enumeration does not
// register dependencies; deep watchers read each key afterwards.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.src))
	for k := range s.src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of properties without registering a dependency.
func (s *Store) Len() int {
	return len(s.src)
}

// Source returns the underlying map. Mutating it directly bypasses
// triggering.
func (s *Store) Source() map[string]any {
	return s.src
}

package reactive

import (
	"math"
	"reflect"
)

// sameValue reports whether old and new count as unchanged for trigger
// suppression. NaN is treated as equal to itself (so NaN -> NaN never
// triggers), +0 and -0 are ordinary equal values, scalars use ==, and
// composites compare by reference: replacing a map or slice with a
// distinct equal-content one still counts as a change.
func sameValue(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int8:
		bv, ok := b.(int8)
		return ok && av == bv
	case int16:
		bv, ok := b.(int16)
		return ok && av == bv
	case int32:
		bv, ok := b.(int32)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint:
		bv, ok := b.(uint)
		return ok && av == bv
	case uint8:
		bv, ok := b.(uint8)
		return ok && av == bv
	case uint16:
		bv, ok := b.(uint16)
		return ok && av == bv
	case uint32:
		bv, ok := b.(uint32)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		if !ok {
			return false
		}
		if av != av && bv != bv { // both NaN
			return true
		}
		return av == bv
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(av) && math.IsNaN(bv) {
			return true
		}
		return av == bv
	}

	// Wrappers compare by identity. A wrapper also equals its own source
	// map or slice, since container reads cache wrappers back into slots.
	switch av := a.(type) {
	case *Store:
		if bv, ok := b.(*Store); ok {
			return av == bv
		}
		if m, ok := b.(map[string]any); ok {
			return sameMapIdentity(av.src, m)
		}
		return false
	case *List:
		if bv, ok := b.(*List); ok {
			return av == bv
		}
		if xs, ok := b.([]any); ok {
			return sameSliceIdentity(av.src, xs)
		}
		return false
	case *Ref:
		bv, ok := b.(*Ref)
		return ok && av == bv
	case *Computed:
		bv, ok := b.(*Computed)
		return ok && av == bv
	case map[string]any:
		if bv, ok := b.(*Store); ok {
			return sameMapIdentity(av, bv.src)
		}
	case []any:
		if bv, ok := b.(*List); ok {
			return sameSliceIdentity(av, bv.src)
		}
	}

	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}
	switch ra.Kind() {
	case reflect.Map, reflect.Func:
		return ra.Pointer() == rb.Pointer()
	case reflect.Slice:
		return ra.Pointer() == rb.Pointer() && ra.Len() == rb.Len()
	}
	if ra.Comparable() && rb.Comparable() {
		return a == b
	}
	return false
}

func sameMapIdentity(a, b map[string]any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func sameSliceIdentity(a, b []any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer() && len(a) == len(b)
}

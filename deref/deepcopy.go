package deref

import "reflect"

// deepCopyValue recursively copies a document tree of map[string]any, []any,
// and scalar values. Scalars are returned as-is; unknown types are returned
// as-is since the resolver never mutates them. Each container is copied once
// and aliased occurrences are re-linked to that copy, so shared substructure
// and identity cycles survive the copy with their sharing intact.
func deepCopyValue(v any) any {
	return copyValue(v, make(map[uintptr]any))
}

// copyValue copies one value, threading the identity map of containers
// already copied on this call. A container is registered before its children
// are copied so self-links resolve to the copy in progress.
func copyValue(v any, copies map[uintptr]any) any {
	switch t := v.(type) {
	case map[string]any:
		ptr := reflect.ValueOf(t).Pointer()
		if cp, ok := copies[ptr]; ok {
			return cp
		}
		cp := make(map[string]any, len(t))
		copies[ptr] = cp
		for k, val := range t {
			cp[k] = copyValue(val, copies)
		}
		return cp
	case []any:
		// Distinct empty slices can share a backing pointer, so they are
		// copied without registering; an empty slice cannot close a cycle.
		if len(t) == 0 {
			return make([]any, 0)
		}
		ptr := reflect.ValueOf(t).Pointer()
		if cp, ok := copies[ptr]; ok {
			return cp
		}
		cp := make([]any, len(t))
		copies[ptr] = cp
		for i, val := range t {
			cp[i] = copyValue(val, copies)
		}
		return cp
	default:
		return v
	}
}

package deref

import (
	"strconv"
	"strings"
)

// ResolvePointer walks root by successive key and index lookups from the
// pointer's segments and returns the node it locates. A pointer of "", "#",
// "/" or "#/" resolves to root itself. The boolean is false when any segment
// is missing, out of bounds, or applied to a scalar.
func ResolvePointer(root any, pointer string) (any, bool) {
	pointer = strings.TrimPrefix(pointer, "#")
	if pointer == "" || pointer == "/" {
		return root, true
	}

	current := root
	for _, segment := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		segment = unescapePointerToken(segment)
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(v) {
				return nil, false
			}
			current = v[index]
		default:
			return nil, false
		}
	}
	return current, true
}

// normalizePointer reduces a local destination to a bare pointer path:
// "#/a/b" becomes "/a/b" and the whole-document pointers "#", "#/", "" and
// "/" all become "".
func normalizePointer(dest string) string {
	p := strings.TrimPrefix(dest, "#")
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// unescapePointerToken unescapes JSON Pointer tokens.
// Per RFC 6901, ~1 represents / and ~0 represents ~.
func unescapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	return token
}

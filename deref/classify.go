package deref

import "strings"

// RefKey is the mapping key that marks a Reference Node.
const RefKey = "$ref"

// Built-in reference types. Any other type name can be registered through
// WithLoader; its destinations are recognized by a "<type>:" scheme prefix.
const (
	// RefTypeLocal identifies fragment-only references into the current document.
	RefTypeLocal = "local"

	// RefTypeFile identifies references naming an external path, optionally
	// suffixed with a fragment pointer.
	RefTypeFile = "file"
)

// Ref describes a single $ref occurrence: its reference type and raw
// destination string.
type Ref struct {
	// Type is RefTypeLocal, RefTypeFile, or a registered loader type name.
	Type string
	// Destination is the raw $ref value.
	Destination string
}

// Location returns the part of the destination before the fragment marker:
// the external path, or "" for purely local references.
func (r Ref) Location() string {
	loc, _ := splitDestination(r.Destination)
	return loc
}

// Fragment returns the pointer-path part of the destination after the
// fragment marker, or "" when the destination carries no fragment.
func (r Ref) Fragment() string {
	_, frag := splitDestination(r.Destination)
	return frag
}

// Classify reports whether node is a Reference Node and, if so, returns its
// descriptor. A Reference Node is a mapping with a string-valued $ref key.
func Classify(node any) (Ref, bool) {
	m, ok := node.(map[string]any)
	if !ok {
		return Ref{}, false
	}
	v, ok := m[RefKey]
	if !ok {
		return Ref{}, false
	}
	dest, ok := v.(string)
	if !ok {
		return Ref{}, false
	}
	return Ref{Type: refType(dest), Destination: dest}, true
}

// refType determines the reference type from the destination alone:
// a fragment marker prefix means local, a scheme prefix names a registered
// type, anything else is a file path.
func refType(dest string) string {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return RefTypeLocal
	}
	// A single leading letter before ":" is treated as a path, not a scheme,
	// so Windows drive letters classify as file destinations.
	if i := strings.Index(dest, ":"); i > 1 && isScheme(dest[:i]) {
		return dest[:i]
	}
	return RefTypeFile
}

// isScheme reports whether s looks like a URI scheme per RFC 3986:
// a letter followed by letters, digits, "+", "-", or ".".
func isScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// splitDestination separates a destination into its location and fragment
// pointer. "defs.yaml#/a/b" yields ("defs.yaml", "/a/b"); "#/a" yields
// ("", "/a"); "defs.yaml" yields ("defs.yaml", "").
func splitDestination(dest string) (location, fragment string) {
	before, after, found := strings.Cut(dest, "#")
	if !found {
		return before, ""
	}
	return before, after
}

package deref

import (
	"strings"

	"github.com/erraggy/reftools/traverse"
)

// RefInfo describes one Reference Node found in a document.
type RefInfo struct {
	// Path is the pointer path of the Reference Node; "" for the root.
	Path string `json:"path" yaml:"path"`
	// Type is the reference type: "local", "file", or a scheme name.
	Type string `json:"type" yaml:"type"`
	// Destination is the raw $ref value.
	Destination string `json:"destination" yaml:"destination"`
}

// CollectRefs walks doc without mutating it and returns every Reference
// Node in traversal order. Useful for auditing a document's reference
// surface before resolving it.
func CollectRefs(doc any) []RefInfo {
	var infos []RefInfo
	if ref, ok := Classify(doc); ok {
		infos = append(infos, RefInfo{Path: "", Type: ref.Type, Destination: ref.Destination})
	}
	collected := traverse.Reduce(doc, func(acc any, c *traverse.Context, value any) any {
		ref, ok := Classify(value)
		if !ok {
			return acc
		}
		return append(acc.([]RefInfo), RefInfo{
			Path:        "/" + strings.Join(c.Path, "/"),
			Type:        ref.Type,
			Destination: ref.Destination,
		})
	}, infos)
	return collected.([]RefInfo)
}

// CheckCircular runs only the static circular-reference analysis over doc:
// the self-reference heuristic on every local reference edge, then the
// dependency-graph cycle check. It returns nil when neither check fires,
// a SelfReferenceError, or a CircularReferenceError with Static set.
func CheckCircular(doc any) error {
	_, err := staticCheck(doc, false)
	return err
}

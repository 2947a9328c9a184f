// Package traverse provides generic traversal over document trees built from
// map[string]any, []any, and scalar values.
//
// The traversal is depth-first and pre-order, and it is mutation-aware:
// visit callbacks may replace the value they were called for, and the
// replacement (not the original) is what gets descended into. Container keys
// are snapshotted before iteration, so deleting or replacing sibling keys
// inside a callback never corrupts the walk; a key that disappears before its
// turn is skipped silently.
//
// # Quick Start
//
// Collect every node path in a document:
//
//	var paths []string
//	traverse.ForEach(doc, func(c *traverse.Context, value any) traverse.Action {
//	    paths = append(paths, strings.Join(c.Path, "/"))
//	    return traverse.Continue
//	})
//
// Replace a node in place:
//
//	traverse.ForEach(doc, func(c *traverse.Context, value any) traverse.Action {
//	    if c.Key == "deprecated" {
//	        return traverse.Replace(false)
//	    }
//	    return traverse.Continue
//	})
//
// # Flow Control
//
// Callbacks return an [Action] to control traversal:
//
//   - [Continue]: keep the value, descend into it if it is a container
//   - [SkipChildren]: keep the value, do not descend
//   - [Stop]: stop the entire walk immediately
//   - [Replace]: substitute a value, descend into the replacement
//   - [ReplaceSkip]: substitute a value, do not descend
//
// # Shared Substructure
//
// Containers are tracked by identity during a walk. When the same map or
// slice is reachable through more than one path, its subtree is walked only
// once; later encounters are visited but not descended into. This keeps the
// traversal terminating on inputs with identity-level cycles.
//
// [Reduce] offers a read-only variant that threads an accumulator through
// every visit, for static analysis passes that must not mutate the tree.
package traverse

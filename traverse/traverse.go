package traverse

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// opKind enumerates the traversal decisions a visit callback can make.
type opKind int

const (
	opContinue opKind = iota
	opSkipChildren
	opStop
	opReplace
	opReplaceSkip
)

// Action controls the traversal's behavior after visiting a node. Use the
// package-level values and constructors; the zero value behaves like
// [Continue].
type Action struct {
	op    opKind
	value any
}

var (
	// Continue keeps the current value and descends into it when it is a container.
	Continue = Action{op: opContinue}

	// SkipChildren keeps the current value but does not descend into it.
	SkipChildren = Action{op: opSkipChildren}

	// Stop stops the walk immediately. No more nodes will be visited.
	Stop = Action{op: opStop}
)

// Replace substitutes v for the current value in its parent container and
// descends into v when it is a container.
func Replace(v any) Action {
	return Action{op: opReplace, value: v}
}

// ReplaceSkip substitutes v for the current value in its parent container
// without descending into it.
func ReplaceSkip(v any) Action {
	return Action{op: opReplaceSkip, value: v}
}

// String returns a string representation of the action.
func (a Action) String() string {
	switch a.op {
	case opContinue:
		return "Continue"
	case opSkipChildren:
		return "SkipChildren"
	case opStop:
		return "Stop"
	case opReplace:
		return "Replace"
	case opReplaceSkip:
		return "ReplaceSkip"
	default:
		return fmt.Sprintf("Action(%d)", int(a.op))
	}
}

// Context describes the node currently being visited.
type Context struct {
	// Path is the sequence of keys and indices from the root to the current
	// value. Sequence indices are rendered in decimal.
	Path []string

	// Key is the key or index of the current value within Parent.
	Key string

	// Parent is the container holding the current value, either a
	// map[string]any or a []any.
	Parent any

	// Root is the value the walk started from.
	Root any
}

// VisitFunc is called once per key of every container reached by ForEach.
type VisitFunc func(c *Context, value any) Action

// ReduceFunc folds the accumulator over every visited value.
type ReduceFunc func(acc any, c *Context, value any) any

// ForEach walks root depth-first in pre-order, invoking visit for each key
// of each container. Replacements requested by visit are applied into the
// parent container before any descent, and descent re-reads the value at the
// current key, so a replacement is what gets walked (or skipped).
func ForEach(root any, visit VisitFunc) {
	w := &walker{root: root, visited: make(map[uintptr]struct{})}
	w.walk(root, nil, visit)
}

// Reduce walks root depth-first in pre-order without mutating it, threading
// acc through every visit, and returns the final accumulator. It is intended
// for static analysis passes over a document.
func Reduce(root any, fn ReduceFunc, initial any) any {
	acc := initial
	w := &walker{root: root, visited: make(map[uintptr]struct{})}
	w.walk(root, nil, func(c *Context, value any) Action {
		acc = fn(acc, c, value)
		return Continue
	})
	return acc
}

// walker holds per-walk state: the identity set of containers already
// descended into, and the stop flag.
type walker struct {
	root    any
	visited map[uintptr]struct{}
	stopped bool
}

// walk iterates one container. It returns immediately when the container was
// already walked via another path (shared substructure) or the walk stopped.
func (w *walker) walk(container any, path []string, visit VisitFunc) {
	if w.stopped || !w.mark(container) {
		return
	}
	switch c := container.(type) {
	case map[string]any:
		w.walkMap(c, path, visit)
	case []any:
		w.walkSlice(c, path, visit)
	}
}

func (w *walker) walkMap(m map[string]any, path []string, visit VisitFunc) {
	// Snapshot the key set so callbacks can add, delete, or replace sibling
	// keys without corrupting this iteration. Sorted for determinism.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if w.stopped {
			return
		}
		value, ok := m[k]
		if !ok {
			// Deleted by an earlier visit in this iteration.
			continue
		}
		childPath := childPath(path, k)
		action := visit(&Context{Path: childPath, Key: k, Parent: m, Root: w.root}, value)
		switch action.op {
		case opStop:
			w.stopped = true
			return
		case opReplace, opReplaceSkip:
			m[k] = action.value
		}
		if action.op == opContinue || action.op == opReplace {
			// Re-read: descend into whatever is at the key now.
			if current, ok := m[k]; ok && isContainer(current) {
				w.walk(current, childPath, visit)
			}
		}
	}
}

func (w *walker) walkSlice(s []any, path []string, visit VisitFunc) {
	// Snapshot the length; a shrunk slice ends iteration early.
	n := len(s)
	for i := 0; i < n; i++ {
		if w.stopped || i >= len(s) {
			return
		}
		key := strconv.Itoa(i)
		childPath := childPath(path, key)
		action := visit(&Context{Path: childPath, Key: key, Parent: s, Root: w.root}, s[i])
		switch action.op {
		case opStop:
			w.stopped = true
			return
		case opReplace, opReplaceSkip:
			s[i] = action.value
		}
		if action.op == opContinue || action.op == opReplace {
			if current := s[i]; isContainer(current) {
				w.walk(current, childPath, visit)
			}
		}
	}
}

// mark records a container in the identity set and reports whether it was
// unseen. Empty slices are never marked: they have no children to walk, and
// distinct empty slices can share a backing pointer.
func (w *walker) mark(container any) bool {
	var ptr uintptr
	switch c := container.(type) {
	case map[string]any:
		ptr = reflect.ValueOf(c).Pointer()
	case []any:
		if len(c) == 0 {
			return true
		}
		ptr = reflect.ValueOf(c).Pointer()
	default:
		return true
	}
	if _, seen := w.visited[ptr]; seen {
		return false
	}
	w.visited[ptr] = struct{}{}
	return true
}

// childPath builds a fresh path slice so callbacks may retain Context.Path.
func childPath(path []string, key string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, key)
}

// isContainer reports whether v is a node the walker descends into.
func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

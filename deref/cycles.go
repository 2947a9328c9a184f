package deref

import (
	"strings"

	"github.com/erraggy/reftools/referrors"
	"github.com/erraggy/reftools/traverse"
)

// refEdge is one local reference occurrence: the pointer path of the
// Reference Node and the pointer path it targets.
type refEdge struct {
	From string
	To   string
}

// collectLocalEdges gathers every local $ref edge in doc, in traversal order.
func collectLocalEdges(doc any) []refEdge {
	edges := traverse.Reduce(doc, func(acc any, c *traverse.Context, value any) any {
		ref, ok := Classify(value)
		if !ok || ref.Type != RefTypeLocal {
			return acc
		}
		return append(acc.([]refEdge), refEdge{
			From: "/" + strings.Join(c.Path, "/"),
			To:   normalizePointer(ref.Destination),
		})
	}, []refEdge{})
	return edges.([]refEdge)
}

// isSelfEdge reports whether an edge is a structural self-reference: the
// destination is the document root, the reference itself, an ancestor, or a
// descendant. The ancestor/descendant test is a lexical prefix comparison on
// pointer-path strings; "/foo" therefore also matches "/foobar". Known false
// positive, kept for compatibility with existing documents.
func isSelfEdge(e refEdge) bool {
	if e.To == "" {
		return true
	}
	return e.From == e.To ||
		strings.HasPrefix(e.To, e.From) ||
		strings.HasPrefix(e.From, e.To)
}

// depGraph is an insertion-ordered dependency graph over pointer paths.
// Edges mean "from depends on to". Adding an edge that would close a cycle
// fails; that failure is the cycle signal.
type depGraph struct {
	index map[string]int
	succ  [][]int
}

func newDepGraph() *depGraph {
	return &depGraph{index: make(map[string]int)}
}

// node returns the vertex for a pointer path, inserting it in arrival order.
func (g *depGraph) node(path string) int {
	if i, ok := g.index[path]; ok {
		return i
	}
	i := len(g.succ)
	g.index[path] = i
	g.succ = append(g.succ, nil)
	return i
}

// addEdge records "from depends on to", failing when the edge would close a
// cycle and reporting the offending endpoints.
func (g *depGraph) addEdge(from, to string) error {
	f, t := g.node(from), g.node(to)
	if f == t || g.reachable(t, f) {
		return &referrors.CircularReferenceError{From: from, To: to, Static: true}
	}
	g.succ[f] = append(g.succ[f], t)
	return nil
}

// reachable reports whether dst can be reached from src over existing edges.
func (g *depGraph) reachable(src, dst int) bool {
	seen := make([]bool, len(g.succ))
	stack := []int{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == dst {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.succ[n]...)
	}
	return false
}

// staticCheckResult carries the outcome of the pre-resolution cycle pass in
// circular-tolerant mode: which Reference Node paths must be left intact.
type staticCheckResult struct {
	// selfRefs holds the From paths of self-reference edges.
	selfRefs map[string]struct{}
	// circular is true when any self reference or graph cycle was found.
	circular bool
}

// staticCheck runs the pre-resolution pass over the original document:
// first the self-reference heuristic on every local edge, then the
// dependency-graph cycle check over the collected pairs in insertion order.
// When tolerate is false the first violation is returned as an error; when
// true, violations only mark the result so resolution can proceed around
// them.
func staticCheck(doc any, tolerate bool) (*staticCheckResult, error) {
	res := &staticCheckResult{selfRefs: make(map[string]struct{})}
	edges := collectLocalEdges(doc)

	for _, e := range edges {
		if isSelfEdge(e) {
			if !tolerate {
				return nil, &referrors.SelfReferenceError{From: e.From, To: e.To}
			}
			res.circular = true
			res.selfRefs[e.From] = struct{}{}
		}
	}

	g := newDepGraph()
	for _, e := range edges {
		if _, self := res.selfRefs[e.From]; self {
			continue
		}
		if err := g.addEdge(e.From, e.To); err != nil {
			if !tolerate {
				return nil, err
			}
			res.circular = true
		}
	}
	return res, nil
}

package deref

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/reftools/referrors"
)

// requireMap asserts that v is a mapping and returns it.
func requireMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		// Dump lazily: spew cannot detect map-level cycles, so dumping a
		// cyclic document unconditionally would never terminate.
		require.True(t, ok, "expected map[string]any, got %T:\n%s", v, spew.Sdump(v))
	}
	return m
}

// TestResolve_NoRefs tests that a reference-free document comes back
// structurally identical and that the input is never mutated.
func TestResolve_NoRefs(t *testing.T) {
	doc := map[string]any{
		"title": "example",
		"items": []any{1, "two", map[string]any{"three": 3}},
	}
	want := map[string]any{
		"title": "example",
		"items": []any{1, "two", map[string]any{"three": 3}},
	}

	resolved, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, want, resolved)

	// Mutating the result must not leak into the input.
	requireMap(t, resolved)["title"] = "changed"
	assert.Equal(t, want, doc)
}

// TestResolve_LocalRef tests basic fragment-pointer substitution.
func TestResolve_LocalRef(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"type": "string"},
		},
		"x": map[string]any{
			"y": map[string]any{RefKey: "#/a/b"},
		},
	}

	resolved, err := Resolve(doc)
	require.NoError(t, err)

	x := requireMap(t, requireMap(t, resolved)["x"])
	assert.Equal(t, map[string]any{"type": "string"}, x["y"])

	// The substituted value is a copy, not an alias of the source subtree.
	requireMap(t, x["y"])["type"] = "number"
	a := requireMap(t, requireMap(t, resolved)["a"])
	assert.Equal(t, map[string]any{"type": "string"}, a["b"])
}

// TestResolve_Idempotent tests that resolving an already resolved document
// is a no-op.
func TestResolve_Idempotent(t *testing.T) {
	doc := map[string]any{
		"defs":  map[string]any{"s": map[string]any{"type": "string"}},
		"field": map[string]any{RefKey: "#/defs/s"},
	}

	once, err := Resolve(doc)
	require.NoError(t, err)
	twice, err := Resolve(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

// TestResolve_MutualCycle tests that a two-node reference cycle fails the
// call by default and survives intact in circular-tolerant mode.
func TestResolve_MutualCycle(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{RefKey: "#/b"},
		"b": map[string]any{RefKey: "#/a"},
	}

	_, err := Resolve(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrCircularReference)
	var circErr *referrors.CircularReferenceError
	require.ErrorAs(t, err, &circErr)
	assert.True(t, circErr.Static)

	result, err := ResolveWithResult(doc, WithRemoveCircular(true))
	require.NoError(t, err)
	assert.True(t, result.Circular)
	assert.Equal(t, doc, result.Document)
}

// TestResolve_SelfReference tests the ancestor/descendant self-reference
// cases under both failure policies.
func TestResolve_SelfReference(t *testing.T) {
	doc := map[string]any{
		"definitions": map[string]any{
			"node": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"next": map[string]any{RefKey: "#/definitions/node"},
				},
			},
		},
	}

	_, err := Resolve(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrSelfReference)

	result, err := ResolveWithResult(doc, WithRemoveCircular(true))
	require.NoError(t, err)
	assert.True(t, result.Circular)
	assert.Equal(t, doc, result.Document)
}

// TestResolve_RootWholeDocumentRef tests a document whose root references
// the whole document.
func TestResolve_RootWholeDocumentRef(t *testing.T) {
	doc := map[string]any{RefKey: "#"}

	_, err := Resolve(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrSelfReference)

	result, err := ResolveWithResult(doc, WithRemoveCircular(true))
	require.NoError(t, err)
	assert.True(t, result.Circular)
	assert.Equal(t, doc, result.Document)
}

// TestResolve_RootRef tests a document that is itself a Reference Node: the
// resolved value becomes the whole result.
func TestResolve_RootRef(t *testing.T) {
	doc := map[string]any{
		RefKey: "#/definitions/a",
		"definitions": map[string]any{
			"a": map[string]any{"type": "string"},
		},
	}

	resolved, err := Resolve(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "string"}, resolved)
}

// TestResolve_MissingLocal tests both policies for an unresolvable local
// destination.
func TestResolve_MissingLocal(t *testing.T) {
	doc := map[string]any{
		"x": map[string]any{RefKey: "#/nope"},
	}

	result, err := ResolveWithResult(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, result.Document)
	assert.Equal(t, []string{"#/nope"}, result.Missing)
	assert.False(t, result.Circular)

	_, err = Resolve(doc, WithFailOnMissing(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrMissingReference)
	var missErr *referrors.MissingReferenceError
	require.ErrorAs(t, err, &missErr)
	assert.Equal(t, []string{"#/nope"}, missErr.Missing)
}

// TestResolve_FileChain tests external file resolution through a nested
// file reference, with relative destinations rebased to the loaded
// document's own directory.
func TestResolve_FileChain(t *testing.T) {
	doc := map[string]any{
		"widget": map[string]any{RefKey: "definitions.yaml#/widget"},
	}

	resolved, err := Resolve(doc, WithBaseDirectory("testdata"))
	require.NoError(t, err)

	want := map[string]any{
		"widget": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"part": map[string]any{
					"type":      "string",
					"maxLength": 10,
				},
			},
		},
	}
	assert.Equal(t, want, resolved)
}

// TestResolve_FileLoadedOnce tests that one external document referenced
// from multiple places is loaded exactly once per call.
func TestResolve_FileLoadedOnce(t *testing.T) {
	loads := 0
	counting := func(destination string, opts *Options) (any, error) {
		loads++
		return FileLoader(destination, opts)
	}

	doc := map[string]any{
		"c": map[string]any{RefKey: "simple.yaml#/color"},
		"s": map[string]any{RefKey: "simple.yaml#/size"},
	}

	resolved, err := Resolve(doc,
		WithBaseDirectory("testdata"),
		WithLoader(RefTypeFile, counting),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	m := requireMap(t, resolved)
	assert.Equal(t, map[string]any{
		"type": "string",
		"enum": []any{"red", "green", "blue"},
	}, m["c"])
	assert.Equal(t, map[string]any{"type": "integer", "minimum": 0}, m["s"])
}

// TestResolve_CrossFileCycle tests a cycle spanning two external files.
func TestResolve_CrossFileCycle(t *testing.T) {
	doc := map[string]any{
		"root": map[string]any{RefKey: "circular-a.yaml#/thing"},
	}

	_, err := Resolve(doc, WithBaseDirectory("testdata"))
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrCircularReference)

	result, err := ResolveWithResult(doc,
		WithBaseDirectory("testdata"),
		WithRemoveCircular(true),
	)
	require.NoError(t, err)
	assert.True(t, result.Circular)

	// The cycle is cut by leaving the repeated reference in place.
	root := requireMap(t, requireMap(t, result.Document)["root"])
	peer := requireMap(t, requireMap(t, root["properties"])["peer"])
	inner := requireMap(t, requireMap(t, peer["properties"])["peer"])
	assert.Equal(t, map[string]any{RefKey: "circular-a.yaml#/thing"}, inner)
}

// TestResolve_SiblingMerge tests deep-merging sibling keys over the
// resolved value, siblings winning on conflict.
func TestResolve_SiblingMerge(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"type": "string", "minLength": 1},
		"b": map[string]any{RefKey: "#/a", "title": "X"},
	}

	resolved, err := Resolve(doc, WithMergeAdditionalProperties(true))
	require.NoError(t, err)
	b := requireMap(t, requireMap(t, resolved)["b"])
	assert.Equal(t, map[string]any{
		"type":      "string",
		"minLength": 1,
		"title":     "X",
	}, b)
}

// TestResolve_SiblingMergeOverride tests that a sibling key replaces the
// resolved value's key of the same name.
func TestResolve_SiblingMergeOverride(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"type": "string", "format": "uuid"},
		"b": map[string]any{RefKey: "#/a", "type": "number"},
	}

	resolved, err := Resolve(doc, WithMergeAdditionalProperties(true))
	require.NoError(t, err)
	b := requireMap(t, requireMap(t, resolved)["b"])
	assert.Equal(t, map[string]any{"type": "number", "format": "uuid"}, b)
}

// TestResolve_SiblingMergeDisabled tests that without the merge option
// sibling keys are discarded in favor of the resolved value.
func TestResolve_SiblingMergeDisabled(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"type": "string"},
		"b": map[string]any{RefKey: "#/a", "title": "X"},
	}

	resolved, err := Resolve(doc)
	require.NoError(t, err)
	b := requireMap(t, requireMap(t, resolved)["b"])
	assert.Equal(t, map[string]any{"type": "string"}, b)
}

// TestResolve_SiblingRefsResolved tests that sibling values containing
// references are themselves resolved before the merge.
func TestResolve_SiblingRefsResolved(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"type": "object"},
		"t": map[string]any{"const": "tag"},
		"b": map[string]any{
			RefKey: "#/a",
			"extra": map[string]any{RefKey: "#/t"},
		},
	}

	resolved, err := Resolve(doc, WithMergeAdditionalProperties(true))
	require.NoError(t, err)
	b := requireMap(t, requireMap(t, resolved)["b"])
	assert.Equal(t, map[string]any{
		"type":  "object",
		"extra": map[string]any{"const": "tag"},
	}, b)
}

// TestResolve_RemoveIDs tests identity-key stripping from resolved values,
// and that a sibling-supplied id survives the strip.
func TestResolve_RemoveIDs(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"id":   "drop-me",
			"$id":  "drop-me-too",
			"type": "string",
		},
		"b": map[string]any{RefKey: "#/a"},
		"c": map[string]any{RefKey: "#/a", "id": "keep-me"},
	}

	resolved, err := Resolve(doc,
		WithRemoveIDs(true),
		WithMergeAdditionalProperties(true),
	)
	require.NoError(t, err)
	m := requireMap(t, resolved)
	assert.Equal(t, map[string]any{"type": "string"}, m["b"])
	assert.Equal(t, map[string]any{"type": "string", "id": "keep-me"}, m["c"])
}

// TestResolve_CustomLoader tests routing a scheme-prefixed destination to a
// registered loader type.
func TestResolve_CustomLoader(t *testing.T) {
	store := map[string]any{
		"things": map[string]any{
			"a": map[string]any{"kind": "thing-a"},
		},
	}
	memLoader := func(destination string, _ *Options) (any, error) {
		name, ok := store[destination[len("mem:"):]]
		if !ok {
			return nil, nil
		}
		return name, nil
	}

	doc := map[string]any{
		"x": map[string]any{RefKey: "mem:things#/a"},
	}

	resolved, err := Resolve(doc, WithLoader("mem", memLoader))
	require.NoError(t, err)
	m := requireMap(t, resolved)
	assert.Equal(t, map[string]any{"kind": "thing-a"}, m["x"])
}

// TestResolve_UnregisteredScheme tests that a destination naming an
// unregistered reference type resolves as missing rather than failing.
func TestResolve_UnregisteredScheme(t *testing.T) {
	doc := map[string]any{
		"x": map[string]any{RefKey: "svc://lookup"},
	}

	result, err := ResolveWithResult(doc)
	require.NoError(t, err)
	assert.Equal(t, doc, result.Document)
	assert.Equal(t, []string{"svc://lookup"}, result.Missing)
}

// TestResolve_LinkedListOneLevel tests circular-tolerant expansion of a
// self-recursive definition: the definition is inlined once and the nested
// repeat is left as a reference.
func TestResolve_LinkedListOneLevel(t *testing.T) {
	doc := map[string]any{
		"definitions": map[string]any{
			"node": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"next": map[string]any{RefKey: "#/definitions/node"},
				},
			},
		},
		"root": map[string]any{RefKey: "#/definitions/node"},
	}

	result, err := ResolveWithResult(doc, WithRemoveCircular(true))
	require.NoError(t, err)
	assert.True(t, result.Circular)

	root := requireMap(t, requireMap(t, result.Document)["root"])
	assert.Equal(t, "object", root["type"])
	next := requireMap(t, requireMap(t, root["properties"])["next"])
	assert.Equal(t, map[string]any{RefKey: "#/definitions/node"}, next)
}

// TestResolve_DepthLimit tests that a reference chain deeper than
// MaxRefDepth terminates with a resource-limit error.
func TestResolve_DepthLimit(t *testing.T) {
	doc := make(map[string]any, MaxRefDepth+2)
	for i := 0; i <= MaxRefDepth; i++ {
		doc[fmt.Sprintf("k%03d", i)] = map[string]any{
			RefKey: fmt.Sprintf("#/k%03d", i+1),
		}
	}
	doc[fmt.Sprintf("k%03d", MaxRefDepth+1)] = map[string]any{"type": "string"}

	_, err := Resolve(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, referrors.ErrResourceLimit)
	var limitErr *referrors.ResourceLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "ref_depth", limitErr.ResourceType)
}

// TestResolveWithResult_Fingerprint tests that the Result carries the
// fingerprint of the input document.
func TestResolveWithResult_Fingerprint(t *testing.T) {
	doc := map[string]any{"title": "fingerprinted"}

	fp, err := Fingerprint(doc)
	require.NoError(t, err)

	result, err := ResolveWithResult(doc)
	require.NoError(t, err)
	assert.Equal(t, fp, result.Fingerprint)
}

// TestResolve_LoaderError tests that a loader failure terminates the call.
func TestResolve_LoaderError(t *testing.T) {
	boom := func(string, *Options) (any, error) {
		return nil, errors.New("backend unavailable")
	}

	doc := map[string]any{
		"x": map[string]any{RefKey: "mem:anything"},
	}

	_, err := Resolve(doc, WithLoader("mem", boom))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load reference mem:anything")
	assert.Contains(t, err.Error(), "backend unavailable")
}

// TestResolve_MissingFile tests that a nonexistent file destination is
// recorded as missing instead of failing the call.
func TestResolve_MissingFile(t *testing.T) {
	doc := map[string]any{
		"x": map[string]any{RefKey: "does-not-exist.yaml#/a"},
	}

	result, err := ResolveWithResult(doc, WithBaseDirectory("testdata"))
	require.NoError(t, err)
	assert.Equal(t, doc, result.Document)
	assert.Equal(t, []string{"does-not-exist.yaml#/a"}, result.Missing)
}

// TestResolve_IdentityCyclicInput tests that a document whose containers
// link back to an ancestor resolves without unbounded recursion, with the
// cycle re-linked inside the result's own copy.
func TestResolve_IdentityCyclicInput(t *testing.T) {
	inner := map[string]any{"label": "x"}
	doc := map[string]any{
		"defs":  map[string]any{"s": map[string]any{"type": "string"}},
		"field": map[string]any{RefKey: "#/defs/s"},
		"loop":  inner,
	}
	inner["back"] = doc

	result, err := ResolveWithResult(doc)
	require.NoError(t, err)

	resolved := requireMap(t, result.Document)
	assert.Equal(t, map[string]any{"type": "string"}, resolved["field"])

	loop := requireMap(t, resolved["loop"])
	back := requireMap(t, loop["back"])
	assert.Equal(t, reflect.ValueOf(resolved).Pointer(), reflect.ValueOf(back).Pointer(),
		"the cycle must point at the result's own root, not the input")

	// The input keeps its reference node untouched.
	assert.Equal(t, map[string]any{RefKey: "#/defs/s"}, doc["field"])
}

// TestResolve_RefInsideSequence tests substitution of a Reference Node that
// lives inside a sequence.
func TestResolve_RefInsideSequence(t *testing.T) {
	doc := map[string]any{
		"defs": map[string]any{"s": map[string]any{"type": "string"}},
		"allOf": []any{
			map[string]any{RefKey: "#/defs/s"},
			map[string]any{"minLength": 2},
		},
	}

	resolved, err := Resolve(doc)
	require.NoError(t, err)
	m := requireMap(t, resolved)
	assert.Equal(t, []any{
		map[string]any{"type": "string"},
		map[string]any{"minLength": 2},
	}, m["allOf"])
}

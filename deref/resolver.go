package deref

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/erraggy/reftools/referrors"
	"github.com/erraggy/reftools/traverse"
)

// Result carries the outcome of a resolution call.
type Result struct {
	// Document is the fully substituted document.
	Document any

	// Missing lists destinations that could not be resolved and were left in
	// place. Only populated when FailOnMissing is off.
	Missing []string

	// Circular is true when any self reference or reference cycle was
	// detected during the call.
	Circular bool

	// Fingerprint is the structural fingerprint of the input document.
	Fingerprint uint64
}

// Resolve substitutes every Reference Node in document with its resolved
// value and returns the resulting document. The input is never mutated.
// The result is either a fully processed document or an error, never both.
func Resolve(document any, opts ...Option) (any, error) {
	result, err := ResolveWithResult(document, opts...)
	if err != nil {
		return nil, err
	}
	return result.Document, nil
}

// ResolveWithResult is Resolve with access to the call's Result: missing
// destinations, circular-reference status, and the input fingerprint.
func ResolveWithResult(document any, opts ...Option) (*Result, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	r := &resolver{
		opts:     o,
		histKeys: make(map[string]struct{}),
		cache:    make(map[string]any),
		missSet:  make(map[string]struct{}),
	}
	resolved, err := r.resolveDocument(deepCopyValue(document), o.BaseDirectory)
	if err != nil {
		return nil, err
	}
	return &Result{
		Document:    resolved,
		Missing:     r.missingList(),
		Circular:    r.circular,
		Fingerprint: r.rootFP,
	}, nil
}

// resolver holds the state of one top-level resolution call. The cache and
// history are owned by exactly one call and must not be shared; a re-entrant
// call starts with an empty cache.
type resolver struct {
	opts *Options

	// Per-document context, saved and restored across document boundaries.
	original any    // pristine copy for local pointer lookups
	fp       uint64 // history namespace of the current document

	// Call-wide state.
	histKeys  map[string]struct{} // destinations being resolved on the current path
	cache     map[string]any      // canonical location -> fully resolved document
	missSet   map[string]struct{}
	circular  bool
	depth     int
	err       error
	rootFP    uint64
	rootFPSet bool
}

// resolveDocument resolves all references inside one document, with baseDir
// anchoring its relative file destinations. It is called once for the
// caller's document and recursively for every external document loaded
// during the run; cache and history are shared across those recursions while
// the pristine-original, fingerprint, and base-directory context are scoped
// to the document at hand.
func (r *resolver) resolveDocument(work any, baseDir string) (any, error) {
	fp, err := Fingerprint(work)
	if err != nil {
		return nil, err
	}
	if !r.rootFPSet {
		r.rootFP, r.rootFPSet = fp, true
	}

	prevOriginal, prevFP, prevBase := r.original, r.fp, r.opts.BaseDirectory
	r.original, r.fp, r.opts.BaseDirectory = deepCopyValue(work), fp, baseDir
	defer func() {
		r.original, r.fp, r.opts.BaseDirectory = prevOriginal, prevFP, prevBase
	}()

	static, err := staticCheck(r.original, r.opts.RemoveCircular)
	if err != nil {
		return nil, err
	}
	if static.circular {
		r.circular = true
		r.opts.Logger.Warn("circular references detected; leaving them unresolved",
			"fingerprint", fp)
	}

	// A document root that is itself a Reference Node replaces the whole
	// result; there is no parent container to substitute into.
	if ref, ok := Classify(work); ok {
		return r.resolveRootRef(work.(map[string]any), ref)
	}

	traverse.ForEach(work, r.visitFunc(static.selfRefs))
	if r.err != nil {
		return nil, r.err
	}
	return work, nil
}

// resolveRootRef handles the distinct top-level-reference path of a
// resolution: the resolved value becomes the whole result.
func (r *resolver) resolveRootRef(node map[string]any, ref Ref) (any, error) {
	if ref.Type == RefTypeLocal && normalizePointer(ref.Destination) == "" {
		// The root referencing the whole document can never resolve.
		if !r.opts.RemoveCircular {
			return nil, &referrors.SelfReferenceError{From: "", To: ""}
		}
		r.circular = true
		return node, nil
	}
	out, resolved := r.resolveRef(ref)
	if r.err != nil {
		return nil, r.err
	}
	if !resolved {
		return node, nil
	}
	return r.finishValue(out, node), nil
}

// visitFunc builds the traversal callback that substitutes Reference Nodes.
// selfRefs, when non-nil, holds pointer paths of statically detected self
// references that must be left intact (circular-tolerant mode); it applies
// only to the top-level walk of a document, never to candidate subtrees.
func (r *resolver) visitFunc(selfRefs map[string]struct{}) traverse.VisitFunc {
	return func(c *traverse.Context, value any) traverse.Action {
		if r.err != nil {
			return traverse.Stop
		}
		ref, ok := Classify(value)
		if !ok {
			return traverse.Continue
		}
		if ref.Type == RefTypeLocal && selfRefs != nil {
			path := "/" + strings.Join(c.Path, "/")
			if _, skip := selfRefs[path]; skip {
				r.opts.Logger.Debug("leaving self reference intact",
					"path", path, "destination", ref.Destination)
				return traverse.Continue
			}
		}
		out, resolved := r.resolveRef(ref)
		if r.err != nil {
			return traverse.Stop
		}
		if !resolved {
			// Left as-is: missing destination or tolerated cycle.
			return traverse.Continue
		}
		return traverse.ReplaceSkip(r.finishValue(out, value.(map[string]any)))
	}
}

// resolveRef resolves one Reference Descriptor to its fully resolved value.
// The second return is false when the reference must be left in place; a
// terminal failure is recorded in r.err instead.
func (r *resolver) resolveRef(ref Ref) (any, bool) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > MaxRefDepth {
		r.err = &referrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        MaxRefDepth,
			Actual:       int64(r.depth),
			Message:      "structure too deeply nested",
		}
		return nil, false
	}

	key := r.historyKey(ref)
	if _, resolving := r.histKeys[key]; resolving {
		// The destination is already being resolved on this chain.
		r.circular = true
		if !r.opts.RemoveCircular {
			r.err = &referrors.CircularReferenceError{Ref: ref.Destination}
			return nil, false
		}
		r.opts.Logger.Warn("circular reference left unresolved",
			"destination", ref.Destination)
		return nil, false
	}
	r.histKeys[key] = struct{}{}
	defer delete(r.histKeys, key)

	var (
		out   any
		found bool
	)
	if ref.Type == RefTypeLocal {
		out, found = r.resolveLocal(ref)
	} else {
		out, found = r.resolveExternal(ref)
	}
	if r.err != nil {
		return nil, false
	}
	if !found {
		r.recordMissing(ref.Destination)
		if r.opts.FailOnMissing {
			r.err = &referrors.MissingReferenceError{Missing: r.missingList()}
		}
		return nil, false
	}
	r.clearMissing(ref.Destination)
	r.opts.Logger.Debug("resolved reference",
		"type", ref.Type, "destination", ref.Destination)
	return out, true
}

// historyKey computes the dynamic-cycle key for a descriptor. Local keys are
// namespaced by the current document's fingerprint; external keys by the
// canonical location, so two fragments of one in-flight document collide and
// signal the cycle.
func (r *resolver) historyKey(ref Ref) string {
	if ref.Type == RefTypeLocal {
		return fmt.Sprintf("local:%d:%s", r.fp, ref.Destination)
	}
	return ref.Type + ":" + r.canonicalLocation(ref)
}

// canonicalLocation returns the cache identity of an external destination:
// for files, the cleaned absolute path against the current base directory;
// for registered types, the location as written.
func (r *resolver) canonicalLocation(ref Ref) string {
	loc := ref.Location()
	if ref.Type != RefTypeFile {
		return loc
	}
	if !filepath.IsAbs(loc) {
		loc = filepath.Join(r.opts.BaseDirectory, loc)
	}
	abs, err := filepath.Abs(loc)
	if err != nil {
		return filepath.Clean(loc)
	}
	return abs
}

// resolveLocal resolves a fragment pointer against the pristine original of
// the current document, so a local reference can target a subtree that is
// itself still being processed. Local references never invoke a loader.
func (r *resolver) resolveLocal(ref Ref) (any, bool) {
	target, ok := ResolvePointer(r.original, ref.Destination)
	if !ok {
		return nil, false
	}
	out := r.resolveValue(deepCopyValue(target))
	if r.err != nil {
		return nil, false
	}
	return out, true
}

// resolveValue fully resolves references inside a candidate value while the
// current history chain stays live, so cycles spanning candidates are caught.
func (r *resolver) resolveValue(v any) any {
	if ref, ok := Classify(v); ok {
		out, resolved := r.resolveRef(ref)
		if r.err != nil || !resolved {
			return v
		}
		return r.finishValue(out, v.(map[string]any))
	}
	traverse.ForEach(v, r.visitFunc(nil))
	return v
}

// resolveExternal resolves a destination that names another document. The
// document is loaded and fully resolved at most once per call; the fragment,
// if any, is then applied against the resolved tree.
func (r *resolver) resolveExternal(ref Ref) (any, bool) {
	loc, frag := splitDestination(ref.Destination)
	canonical := r.canonicalLocation(ref)

	doc, cached := r.cache[canonical]
	if !cached {
		if len(r.cache) >= MaxCachedDocuments {
			r.err = &referrors.ResourceLimitError{
				ResourceType: "cached_documents",
				Limit:        MaxCachedDocuments,
				Actual:       int64(len(r.cache)),
				Message:      "too many external references",
			}
			return nil, false
		}
		loader, ok := r.opts.Loaders[ref.Type]
		if !ok {
			r.opts.Logger.Warn("no loader registered for reference type",
				"type", ref.Type, "destination", ref.Destination)
			return nil, false
		}
		raw, err := loader(loc, r.opts)
		if err != nil {
			r.err = fmt.Errorf("failed to load reference %s: %w", ref.Destination, err)
			return nil, false
		}
		if raw == nil {
			return nil, false
		}

		// Relative references inside the loaded document resolve against
		// its own directory, not the caller's.
		nextBase := r.opts.BaseDirectory
		if ref.Type == RefTypeFile {
			nextBase = filepath.Dir(canonical)
		}
		resolved, err := r.resolveDocument(raw, nextBase)
		if err != nil {
			r.err = err
			return nil, false
		}
		r.cache[canonical] = resolved
		doc = resolved
	}

	if frag == "" {
		return deepCopyValue(doc), true
	}
	target, ok := ResolvePointer(doc, frag)
	if !ok {
		return nil, false
	}
	return deepCopyValue(target), true
}

// finishValue applies the post-resolution policies to a resolved value:
// identity stripping first, then the sibling merge, in that order so a
// sibling-supplied id is never stripped.
func (r *resolver) finishValue(resolved any, node map[string]any) any {
	out := resolved
	if r.opts.RemoveIDs {
		if m, ok := out.(map[string]any); ok {
			delete(m, "id")
			delete(m, "$id")
		}
	}
	if r.opts.MergeAdditionalProperties {
		out = r.mergeSiblings(out, node)
	}
	return out
}

// mergeSiblings deep-merges the Reference Node's sibling keys over the
// resolved value. Sibling values are themselves resolved before merging so
// no reference survives inside the substituted result.
func (r *resolver) mergeSiblings(resolved any, node map[string]any) any {
	if len(node) <= 1 {
		return resolved
	}
	base, ok := resolved.(map[string]any)
	if !ok {
		// Nothing to merge into a scalar or sequence result.
		return resolved
	}
	siblings := make(map[string]any, len(node)-1)
	for k, v := range node {
		if k == RefKey {
			continue
		}
		siblings[k] = r.resolveValue(deepCopyValue(v))
	}
	return mergeMaps(base, siblings)
}

// mergeMaps merges override into base recursively, override winning on
// conflicts except where both sides hold mappings, which merge key-wise.
func mergeMaps(base, override map[string]any) map[string]any {
	for k, v := range override {
		if bv, ok := base[k]; ok {
			bm, bIsMap := bv.(map[string]any)
			vm, vIsMap := v.(map[string]any)
			if bIsMap && vIsMap {
				base[k] = mergeMaps(bm, vm)
				continue
			}
		}
		base[k] = v
	}
	return base
}

func (r *resolver) recordMissing(dest string) {
	if _, ok := r.missSet[dest]; ok {
		return
	}
	r.missSet[dest] = struct{}{}
	r.opts.Logger.Warn("missing reference", "destination", dest)
}

func (r *resolver) clearMissing(dest string) {
	delete(r.missSet, dest)
}

// missingList returns the recorded missing destinations, sorted for
// deterministic output.
func (r *resolver) missingList() []string {
	if len(r.missSet) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.missSet))
	for dest := range r.missSet {
		out = append(out, dest)
	}
	sort.Strings(out)
	return out
}

// Package deref resolves $ref indirection in JSON-Schema-like document trees.
//
// A document is a tree of map[string]any, []any, and scalar values, as
// produced by unmarshaling YAML or JSON. A mapping with a string-valued
// "$ref" key is a Reference Node; Resolve replaces every Reference Node with
// the value its destination designates, recursing across document boundaries
// for external references.
//
// # Quick Start
//
//	var doc any
//	if err := yaml.Unmarshal(data, &doc); err != nil {
//		log.Fatal(err)
//	}
//	resolved, err := deref.Resolve(doc,
//		deref.WithBaseDirectory("./schemas"),
//		deref.WithFailOnMissing(true),
//	)
//
// # Reference Types
//
// A destination starting with "#" is a local pointer into the current
// document. Anything else names an external document, optionally suffixed
// with a "#/..." fragment into it. Destinations with a scheme prefix
// ("vault:kv/data/app") are routed to the loader registered for that scheme
// via [WithLoader]; no network loader is built in.
//
// External documents are loaded and resolved at most once per call. Relative
// destinations inside a loaded document resolve against that document's own
// directory, so nested cross-file references behave the same whether the
// chain is entered from the caller's directory or not.
//
// # Circular References
//
// Two independent checks guard against unbounded recursion. Before any
// substitution, a static pass flags references targeting their own ancestor
// or descendant (SelfReferenceError) and builds a dependency graph over all
// local references, failing on the edge that closes a cycle. During
// substitution, a resolution-history stack catches live cycles, including
// cycles spanning multiple files. With [WithRemoveCircular] both checks
// downgrade to leaving the offending Reference Nodes in place; the outcome
// is reported in Result.Circular.
//
// # Failure Model
//
// Resolve returns either a fully processed document or a typed error from
// the referrors package, never a half-substituted tree alongside an error.
// The one locally recovered condition is a missing destination under the
// default policy: the Reference Node stays in the output and the destination
// is recorded in Result.Missing.
//
// Resolution is synchronous and single-threaded by design: base-directory
// and history state are scoped to strictly nested calls. One resolution call
// owns its cache and history exclusively; concurrent calls are independent.
package deref

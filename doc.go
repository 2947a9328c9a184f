// Package reftools provides tools for resolving $ref indirection in
// JSON-Schema-like document trees.
//
// reftools inlines references within a document and across document
// boundaries, loading external documents through pluggable loaders while
// detecting self-referencing structures and reference cycles.
//
// # Overview
//
// The library consists of three primary packages:
//
//   - deref: classify, resolve, and substitute $ref nodes in a document
//   - traverse: generic mutation-aware traversal over document trees
//   - referrors: structured error types shared by all packages
//
// # Installation
//
// Install the library using go get:
//
//	go get github.com/erraggy/reftools
//
// # Quick Start
//
// Resolve every $ref in a document:
//
//	import "github.com/erraggy/reftools/deref"
//
//	resolved, err := deref.Resolve(doc,
//		deref.WithBaseDirectory("./schemas"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Inspect missing references and circular-reference status:
//
//	result, err := deref.ResolveWithResult(doc,
//		deref.WithRemoveCircular(true),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("missing: %v circular: %v\n", result.Missing, result.Circular)
//
// # Reference Syntax
//
// A reference is a mapping node carrying a string-valued "$ref" key:
//
//   - "#/a/b"            local pointer into the current document
//   - "other.yaml"       whole external document
//   - "other.yaml#/a/b"  pointer into an external document
//   - "vault:secrets/x"  any reference type registered via deref.WithLoader
//
// # Error Handling
//
// All failures are typed errors from the referrors package, usable with
// errors.Is and errors.As:
//
//	_, err := deref.Resolve(doc, deref.WithFailOnMissing(true))
//	if errors.Is(err, referrors.ErrMissingReference) {
//		// handle unresolvable destinations
//	}
package reftools

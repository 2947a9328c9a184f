// Package referrors provides structured error types for reftools.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of resolution failures and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - SelfReferenceError: a reference points at its own ancestor or descendant
//   - CircularReferenceError: a reference chain revisits a destination
//   - MissingReferenceError: a destination could not be resolved
//   - MalformedInputError: the input document cannot be serialized
//   - ResourceLimitError: resource exhaustion (depth, size, count limits)
//   - ConfigError: invalid configuration or input options
//
// # Usage with errors.As
//
//	resolved, err := deref.Resolve(doc)
//	if err != nil {
//	    var circErr *referrors.CircularReferenceError
//	    if errors.As(err, &circErr) {
//	        if circErr.Static {
//	            // cycle found in the dependency graph before resolution
//	        }
//	    }
//	}
package referrors

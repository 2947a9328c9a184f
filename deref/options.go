package deref

import (
	"os"

	"github.com/erraggy/reftools/referrors"
)

// Loader produces the raw content of an external reference destination.
// The destination is the location part of the $ref value; the engine strips
// the fragment pointer before calling the loader and applies it afterwards
// against the resolved content. Returning (nil, nil) means the destination
// does not exist, which the engine records as a missing reference instead of
// failing the call.
type Loader func(destination string, opts *Options) (any, error)

// Options control a single resolution call.
type Options struct {
	// BaseDirectory anchors relative file destinations. Defaults to the
	// current working directory. During nested resolution of an external
	// document the engine temporarily rebases this to that document's own
	// directory so its relative references resolve against its location.
	BaseDirectory string

	// FailOnMissing terminates the call with a MissingReferenceError when a
	// destination cannot be resolved. When false (the default), unresolvable
	// Reference Nodes are left in place and recorded in Result.Missing.
	FailOnMissing bool

	// RemoveIDs strips "id" and "$id" keys from the top level of each
	// resolved value before substitution. Identity keys supplied as siblings
	// of the $ref itself are never stripped.
	RemoveIDs bool

	// MergeAdditionalProperties deep-merges the Reference Node's sibling
	// keys (everything except $ref) over the resolved value. Sibling keys
	// win; the resolved value's fields survive only where the sibling does
	// not define them.
	MergeAdditionalProperties bool

	// RemoveCircular tolerates reference cycles by leaving the offending
	// Reference Nodes unresolved instead of failing the call.
	RemoveCircular bool

	// Loaders maps reference-type names to loader functions. The built-in
	// "file" loader is installed unless overridden. Destinations with a
	// scheme prefix matching a registered type name are routed to that
	// loader; unregistered types resolve as missing references.
	Loaders map[string]Loader

	// Logger receives structured diagnostics. Defaults to NopLogger.
	Logger Logger
}

// Option configures a resolution call.
type Option func(*Options)

// WithBaseDirectory sets the directory against which relative file
// destinations are resolved.
func WithBaseDirectory(dir string) Option {
	return func(o *Options) { o.BaseDirectory = dir }
}

// WithFailOnMissing makes unresolvable destinations terminate the call with
// a MissingReferenceError instead of being left in place.
func WithFailOnMissing(fail bool) Option {
	return func(o *Options) { o.FailOnMissing = fail }
}

// WithRemoveIDs strips identity keys from resolved values before substitution.
func WithRemoveIDs(remove bool) Option {
	return func(o *Options) { o.RemoveIDs = remove }
}

// WithMergeAdditionalProperties merges a Reference Node's sibling keys over
// its resolved value.
func WithMergeAdditionalProperties(merge bool) Option {
	return func(o *Options) { o.MergeAdditionalProperties = merge }
}

// WithRemoveCircular tolerates reference cycles, leaving them unresolved
// instead of erroring.
func WithRemoveCircular(remove bool) Option {
	return func(o *Options) { o.RemoveCircular = remove }
}

// WithLoader registers a loader for a reference type name, replacing the
// built-in loader when the name is "file".
func WithLoader(refType string, fn Loader) Option {
	return func(o *Options) {
		if o.Loaders == nil {
			o.Loaders = make(map[string]Loader)
		}
		o.Loaders[refType] = fn
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// newOptions builds the effective Options for one call: defaults first, then
// the caller's options, then validation.
func newOptions(opts ...Option) (*Options, error) {
	o := &Options{
		Loaders: map[string]Loader{RefTypeFile: FileLoader},
		Logger:  NopLogger{},
	}
	if wd, err := os.Getwd(); err == nil {
		o.BaseDirectory = wd
	} else {
		o.BaseDirectory = "."
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Logger == nil {
		o.Logger = NopLogger{}
	}
	for name, fn := range o.Loaders {
		if name == "" {
			return nil, &referrors.ConfigError{
				Option:  "loaders",
				Message: "loader type name must not be empty",
			}
		}
		if fn == nil {
			return nil, &referrors.ConfigError{
				Option:  "loaders",
				Value:   name,
				Message: "loader function must not be nil",
			}
		}
	}
	return o, nil
}

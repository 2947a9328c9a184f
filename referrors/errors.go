package referrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrSelfReference indicates a reference targets its own ancestor or descendant.
	ErrSelfReference = errors.New("self reference")

	// ErrCircularReference indicates a circular reference chain was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrMissingReference indicates a reference destination could not be resolved.
	ErrMissingReference = errors.New("missing reference")

	// ErrMalformedInput indicates the input document could not be serialized.
	ErrMalformedInput = errors.New("malformed input")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// SelfReferenceError represents a reference whose destination overlaps its
// own location: the destination is the document root, the reference itself,
// one of its ancestors, or one of its descendants.
type SelfReferenceError struct {
	// From is the pointer path of the reference node
	From string
	// To is the pointer path the reference targets
	To string
}

// Error returns a human-readable error message.
func (e *SelfReferenceError) Error() string {
	msg := "self reference"
	if e.From != "" || e.To != "" {
		msg += fmt.Sprintf(": %s -> %s", displayPointer(e.From), displayPointer(e.To))
	}
	return msg
}

// Unwrap returns nil as SelfReferenceError has no underlying cause.
func (e *SelfReferenceError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *SelfReferenceError) Is(target error) bool {
	return target == ErrSelfReference
}

// CircularReferenceError represents a reference cycle. Static cycles are
// found in the local dependency graph before any substitution happens;
// dynamic cycles are found when a destination reappears in the resolution
// history of the current chain.
type CircularReferenceError struct {
	// Ref is the destination whose resolution closed the cycle (dynamic detection)
	Ref string
	// From is the dependent pointer path of the offending edge (static detection)
	From string
	// To is the dependency pointer path of the offending edge (static detection)
	To string
	// Static is true when the cycle was found by the dependency-graph pass
	Static bool
}

// Error returns a human-readable error message.
func (e *CircularReferenceError) Error() string {
	msg := "circular reference"
	if e.Static {
		msg += fmt.Sprintf(": dependency %s -> %s closes a cycle", displayPointer(e.From), displayPointer(e.To))
	} else if e.Ref != "" {
		msg += ": " + e.Ref
	}
	return msg
}

// Unwrap returns nil as CircularReferenceError has no underlying cause.
func (e *CircularReferenceError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// MissingReferenceError represents destinations that could not be resolved.
// It is only surfaced when the caller requests fail-on-missing behavior;
// otherwise unresolved references are left in place and recorded.
type MissingReferenceError struct {
	// Missing lists the unresolvable destinations in first-seen order
	Missing []string
}

// Error returns a human-readable error message.
func (e *MissingReferenceError) Error() string {
	msg := "missing reference"
	if len(e.Missing) > 0 {
		msg += ": " + strings.Join(e.Missing, ", ")
	}
	return msg
}

// Unwrap returns nil as MissingReferenceError has no underlying cause.
func (e *MissingReferenceError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *MissingReferenceError) Is(target error) bool {
	return target == ErrMissingReference
}

// MalformedInputError represents an input document that cannot be
// fingerprinted because serialization failed.
type MalformedInputError struct {
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *MalformedInputError) Error() string {
	msg := "malformed input"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *MalformedInputError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// ResourceLimitError represents a resource exhaustion condition.
// This occurs when resolution exceeds configured limits.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "cached_documents", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as ResourceLimitError has no underlying cause.
func (e *ResourceLimitError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// displayPointer renders a pointer path for error messages, showing the
// document root as "#".
func displayPointer(p string) string {
	if p == "" {
		return "#"
	}
	return p
}

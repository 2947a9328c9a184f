package deref

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/erraggy/reftools/referrors"
	"go.yaml.in/yaml/v4"
)

const (
	// MaxRefDepth is the maximum depth allowed for nested $ref resolution
	// This prevents stack overflow from deeply nested (but non-circular) references
	MaxRefDepth = 100

	// MaxCachedDocuments is the maximum number of external documents to cache
	// This prevents memory exhaustion from documents with many external references
	MaxCachedDocuments = 100

	// MaxFileSize is the maximum size (in bytes) allowed for external reference files
	// This prevents resource exhaustion from loading arbitrarily large files
	// Set to 10MB which should be sufficient for most schema documents
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// FileLoader is the built-in loader for the "file" reference type. It reads
// the destination relative to Options.BaseDirectory and parses it as YAML or
// JSON into a document tree. A nonexistent file yields (nil, nil) so the
// engine treats it as a missing reference rather than a hard failure.
func FileLoader(destination string, opts *Options) (any, error) {
	path := destination
	if !filepath.IsAbs(path) {
		path = filepath.Clean(filepath.Join(opts.BaseDirectory, path))
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read external file %s: %w", path, err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, &referrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        MaxFileSize,
			Actual:       int64(len(data)),
			Message:      path,
		}
	}

	// The YAML parser handles both YAML and JSON.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse external file %s: %w", path, err)
	}
	return doc, nil
}

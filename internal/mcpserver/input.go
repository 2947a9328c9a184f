package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/reftools/deref"
)

// MaxInlineContent caps the size of inline document content accepted by a
// tool call. Matches the external-file limit of the resolution engine.
const MaxInlineContent = deref.MaxFileSize

// docInput represents the two ways a document can be provided to a tool.
// Exactly one of File or Content must be set.
type docInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a YAML or JSON document on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline document content (JSON or YAML)"`
}

// load parses the document from whichever input was provided and returns it
// with the base directory its relative file references should resolve
// against. Inline content resolves against the process working directory.
func (d docInput) load() (doc any, baseDir string, err error) {
	switch {
	case d.File != "" && d.Content != "":
		return nil, "", fmt.Errorf("exactly one of file or content must be provided (got both)")
	case d.File != "":
		return d.loadFile()
	case d.Content != "":
		return d.loadContent()
	default:
		return nil, "", fmt.Errorf("exactly one of file or content must be provided (got neither)")
	}
}

func (d docInput) loadFile() (any, string, error) {
	absPath, err := filepath.Abs(d.File)
	if err != nil {
		return nil, "", fmt.Errorf("invalid file path %s: %w", d.File, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", d.File, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", d.File, err)
	}
	return doc, filepath.Dir(absPath), nil
}

func (d docInput) loadContent() (any, string, error) {
	if len(d.Content) > MaxInlineContent {
		return nil, "", fmt.Errorf("inline content exceeds %d bytes", MaxInlineContent)
	}
	var doc any
	if err := yaml.Unmarshal([]byte(d.Content), &doc); err != nil {
		return nil, "", fmt.Errorf("failed to parse inline content: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return doc, wd, nil
}

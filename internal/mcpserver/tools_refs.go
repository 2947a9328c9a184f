package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/reftools/deref"
)

type refsInput struct {
	Doc  docInput `json:"doc"            jsonschema:"The document to inventory"`
	Type string   `json:"type,omitempty" jsonschema:"Only return references of this type (local, file, or a URI scheme)"`
}

type refEntry struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

type refsOutput struct {
	Refs  []refEntry `json:"refs,omitempty"`
	Count int        `json:"count"`
}

func handleRefs(_ context.Context, _ *mcp.CallToolRequest, input refsInput) (*mcp.CallToolResult, refsOutput, error) {
	doc, _, err := input.Doc.load()
	if err != nil {
		return errResult(err), refsOutput{}, nil
	}

	var output refsOutput
	for _, info := range deref.CollectRefs(doc) {
		if input.Type != "" && info.Type != input.Type {
			continue
		}
		output.Refs = append(output.Refs, refEntry{
			Path:        info.Path,
			Type:        info.Type,
			Destination: info.Destination,
		})
	}
	output.Count = len(output.Refs)
	return nil, output, nil
}

package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/reftools/deref"
)

type resolveInput struct {
	Doc                       docInput `json:"doc"                                      jsonschema:"The document to resolve"`
	BaseDir                   string   `json:"base_dir,omitempty"                       jsonschema:"Directory for relative file references; defaults to the document's own directory"`
	FailOnMissing             bool     `json:"fail_on_missing,omitempty"                jsonschema:"Error on unresolvable references instead of leaving them in place"`
	RemoveIDs                 bool     `json:"remove_ids,omitempty"                     jsonschema:"Strip id and $id keys from resolved values"`
	MergeAdditionalProperties bool     `json:"merge_additional_properties,omitempty"    jsonschema:"Deep-merge a reference's sibling keys over its resolved value"`
	AllowCircular             bool     `json:"allow_circular,omitempty"                 jsonschema:"Leave circular references in place instead of erroring"`
}

type resolveOutput struct {
	Document string   `json:"document"`
	Missing  []string `json:"missing,omitempty"`
	Circular bool     `json:"circular,omitempty"`
}

func handleResolve(_ context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	doc, baseDir, err := input.Doc.load()
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}
	if input.BaseDir != "" {
		baseDir = input.BaseDir
	}

	result, err := deref.ResolveWithResult(doc,
		deref.WithBaseDirectory(baseDir),
		deref.WithFailOnMissing(input.FailOnMissing),
		deref.WithRemoveIDs(input.RemoveIDs),
		deref.WithMergeAdditionalProperties(input.MergeAdditionalProperties),
		deref.WithRemoveCircular(input.AllowCircular),
	)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	data, err := yaml.Marshal(result.Document)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	return nil, resolveOutput{
		Document: string(data),
		Missing:  result.Missing,
		Circular: result.Circular,
	}, nil
}

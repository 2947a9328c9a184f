// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes reftools capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/reftools"
)

const serverInstructions = `reftools MCP server — resolves, inventories, and cycle-checks $ref references in YAML/JSON document trees.

Tools accept a document as either a file path or inline content. Relative file references inside a document resolve against the document's own directory; for inline content they resolve against the server's working directory unless base_dir is set.

Key behaviors:
- resolve substitutes every $ref with its target and returns the resolved document. Unresolvable references are left in place and reported as missing unless fail_on_missing is set.
- refs lists every $ref occurrence with its pointer path, type, and destination.
- check_circular runs the static circular-reference analysis without resolving anything.
- Circular references fail resolution by default; set allow_circular to leave them in place instead.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "reftools", Version: reftools.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Resolve every $ref reference in a YAML or JSON document and return the fully substituted document. Supports local fragment pointers (#/a/b) and external file references (other.yaml#/a). Unresolvable references are left in place and listed in the missing field; set fail_on_missing to error instead. Circular references fail the call unless allow_circular is set. Use merge_additional_properties to deep-merge a reference's sibling keys over its resolved value, and remove_ids to strip id/$id keys from resolved values.",
	}, handleResolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refs",
		Description: "List every $ref reference in a YAML or JSON document without resolving anything. Returns each reference's pointer path, type (local, file, or a URI scheme), and raw destination. Use type to filter to one reference type.",
	}, handleRefs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_circular",
		Description: "Check a YAML or JSON document for circular $ref references without resolving anything. Detects self references (a reference targeting itself, an ancestor, or a descendant) and reference cycles spanning multiple definitions. Returns the offending reference paths when a problem is found.",
	}, handleCheckCircular)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

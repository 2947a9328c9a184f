package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/reftools/deref"
	"github.com/erraggy/reftools/referrors"
)

type checkCircularInput struct {
	Doc docInput `json:"doc" jsonschema:"The document to check"`
}

type checkCircularOutput struct {
	Circular bool   `json:"circular"`
	Kind     string `json:"kind,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func handleCheckCircular(_ context.Context, _ *mcp.CallToolRequest, input checkCircularInput) (*mcp.CallToolResult, checkCircularOutput, error) {
	doc, _, err := input.Doc.load()
	if err != nil {
		return errResult(err), checkCircularOutput{}, nil
	}

	checkErr := deref.CheckCircular(doc)
	if checkErr == nil {
		return nil, checkCircularOutput{Circular: false}, nil
	}

	output := checkCircularOutput{Circular: true, Detail: checkErr.Error()}
	var selfErr *referrors.SelfReferenceError
	var circErr *referrors.CircularReferenceError
	switch {
	case errors.As(checkErr, &selfErr):
		output.Kind = "self"
		output.From = selfErr.From
		output.To = selfErr.To
	case errors.As(checkErr, &circErr):
		output.Kind = "cycle"
		output.From = circErr.From
		output.To = circErr.To
	}
	return nil, output, nil
}

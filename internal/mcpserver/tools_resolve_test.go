package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTool_LocalRefs(t *testing.T) {
	content := `definitions:
  name:
    type: string
person:
  properties:
    name:
      $ref: "#/definitions/name"
`
	input := resolveInput{
		Doc: docInput{Content: content},
	}
	result, output, err := handleResolve(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.Contains(t, output.Document, "type: string")
	assert.NotContains(t, output.Document, "$ref")
	assert.Empty(t, output.Missing)
	assert.False(t, output.Circular)
}

func TestResolveTool_MissingRef(t *testing.T) {
	content := `a:
  $ref: "#/nope"
`
	input := resolveInput{
		Doc: docInput{Content: content},
	}
	result, output, err := handleResolve(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.Equal(t, []string{"#/nope"}, output.Missing)

	input.FailOnMissing = true
	result, _, err = handleResolve(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestResolveTool_Circular(t *testing.T) {
	content := `a:
  $ref: "#/b"
b:
  $ref: "#/a"
`
	input := resolveInput{
		Doc: docInput{Content: content},
	}
	result, _, err := handleResolve(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)

	input.AllowCircular = true
	result, output, err := handleResolve(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.True(t, output.Circular)
	assert.Contains(t, output.Document, "$ref")
}

func TestResolveTool_FileInput(t *testing.T) {
	dir := t.TempDir()
	common := filepath.Join(dir, "common.yaml")
	require.NoError(t, os.WriteFile(common, []byte("leaf:\n  type: string\n"), 0o644))
	main := filepath.Join(dir, "main.yaml")
	require.NoError(t, os.WriteFile(main, []byte("field:\n  $ref: \"common.yaml#/leaf\"\n"), 0o644))

	input := resolveInput{
		Doc: docInput{File: main},
	}
	result, output, err := handleResolve(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	require.Nil(t, result)
	assert.Contains(t, output.Document, "type: string")
	assert.Empty(t, output.Missing)
}

func TestResolveTool_BadInput(t *testing.T) {
	result, _, err := handleResolve(context.Background(), &mcp.CallToolRequest{}, resolveInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

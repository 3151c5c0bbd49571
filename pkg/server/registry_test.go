package server

import (
	"testing"

	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateMatcherExtractsNamedVars(t *testing.T) {
	m, err := newTemplateMatcher("mcp://repo/{owner}/{name}/file")
	require.NoError(t, err)

	params, ok := m.match("mcp://repo/richard/mcp/file")
	require.True(t, ok)
	assert.Equal(t, "richard", params["owner"])
	assert.Equal(t, "mcp", params["name"])

	_, ok = m.match("mcp://repo/richard/file")
	assert.False(t, ok)
}

func TestRegistryResolveResourcePrefersLiteralOverTemplate(t *testing.T) {
	r := newRegistry()
	literalHandler := func(ctx *ToolContext, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
		return &protocol.ReadResourceResult{Contents: []protocol.ResourceContents{{URI: uri, Text: "literal"}}}, nil
	}
	templateHandler := func(ctx *ToolContext, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
		return &protocol.ReadResourceResult{Contents: []protocol.ResourceContents{{URI: uri, Text: "template"}}}, nil
	}

	r.registerResource(protocol.Resource{URI: "mcp://docs/overview", Name: "overview"}, literalHandler)
	require.NoError(t, r.registerResourceTemplate(protocol.ResourceTemplate{URITemplate: "mcp://docs/{page}"}, templateHandler))

	handler, params, ok := r.resolveResource("mcp://docs/overview")
	require.True(t, ok)
	assert.Nil(t, params)
	result, _ := handler(nil, "mcp://docs/overview", nil)
	assert.Equal(t, "literal", result.Contents[0].Text)

	handler, params, ok = r.resolveResource("mcp://docs/weather")
	require.True(t, ok)
	assert.Equal(t, "weather", params["page"])
	result, _ = handler(nil, "mcp://docs/weather", params)
	assert.Equal(t, "template", result.Contents[0].Text)
}

func TestRegistryHasToolsResourcesPrompts(t *testing.T) {
	r := newRegistry()
	assert.False(t, r.hasTools())
	assert.False(t, r.hasResources())
	assert.False(t, r.hasPrompts())

	r.registerTool(protocol.Tool{Name: "t"}, func(ctx *ToolContext, args map[string]any) (*protocol.CallToolResult, error) {
		return nil, nil
	})
	assert.True(t, r.hasTools())

	r.registerPrompt(protocol.Prompt{Name: "p"}, func(ctx *ToolContext, args map[string]string) (*protocol.GetPromptResult, error) {
		return nil, nil
	})
	assert.True(t, r.hasPrompts())
}

func TestRegistryToolOrderIsRegistrationOrder(t *testing.T) {
	r := newRegistry()
	r.registerTool(protocol.Tool{Name: "b"}, nil)
	r.registerTool(protocol.Tool{Name: "a"}, nil)
	names := make([]string, 0)
	for _, tool := range r.listTools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names)
}

package prompts

import (
	"testing"

	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return &Registry{baseDir: t.TempDir()}
}

func TestSaveLoadAndList(t *testing.T) {
	r := newTestRegistry(t)
	prompt := protocol.Prompt{
		Name:        "greet",
		Description: "says hello",
		Arguments:   []protocol.PromptArgument{{Name: "name", Required: true}},
	}
	require.NoError(t, r.Save(prompt, "Hello, {{name}}!"))

	list, err := r.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "greet", list[0].Name)
}

func TestRenderSubstitutesArguments(t *testing.T) {
	r := newTestRegistry(t)
	prompt := protocol.Prompt{
		Name:      "greet",
		Arguments: []protocol.PromptArgument{{Name: "name", Required: true}},
	}
	require.NoError(t, r.Save(prompt, "Hello, {{name}}!"))

	result, err := r.Render("greet", map[string]string{"name": "Ada"})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, protocol.TextContent("Hello, Ada!"), result.Messages[0].Content)
}

func TestRenderRejectsMissingRequiredArgument(t *testing.T) {
	r := newTestRegistry(t)
	prompt := protocol.Prompt{
		Name:      "greet",
		Arguments: []protocol.PromptArgument{{Name: "name", Required: true}},
	}
	require.NoError(t, r.Save(prompt, "Hello, {{name}}!"))

	_, err := r.Render("greet", map[string]string{})
	assert.Error(t, err)
}

func TestRenderUnknownPrompt(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Render("missing", nil)
	assert.Error(t, err)
}

func TestDeleteRemovesPrompt(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Save(protocol.Prompt{Name: "temp"}, "body"))
	require.NoError(t, r.Delete("temp"))

	list, err := r.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPromptPathRejectsPathTraversal(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.promptPath("../escape")
	assert.Error(t, err)
}

func TestSaveRejectsEmptyName(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Save(protocol.Prompt{}, "body")
	assert.Error(t, err)
}

func TestRegisterAllWiresEveryStoredPrompt(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Save(protocol.Prompt{Name: "a"}, "A body"))
	require.NoError(t, r.Save(protocol.Prompt{Name: "b"}, "B body"))

	s := server.New("test", "0.0.1")
	require.NoError(t, r.RegisterAll(s))

	names := map[string]bool{}
	for _, p := range s.ListPrompts() {
		names[p.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
}

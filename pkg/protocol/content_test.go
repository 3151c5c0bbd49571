package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextContentConstructor(t *testing.T) {
	c := TextContent("hello")
	assert.Equal(t, "text", c.Type)
	assert.Equal(t, "hello", c.Text)
}

func TestImageContentConstructor(t *testing.T) {
	c := ImageContent("Zm9v", "image/png")
	assert.Equal(t, "image", c.Type)
	assert.Equal(t, "Zm9v", c.Data)
	assert.Equal(t, "image/png", c.MimeType)
}

func TestEmbeddedResourceContentConstructor(t *testing.T) {
	c := EmbeddedResourceContent(ResourceContents{URI: "mcp://docs/overview", Text: "hi"})
	assert.Equal(t, "resource", c.Type)
	require.NotNil(t, c.Resource)
	assert.Equal(t, "mcp://docs/overview", c.Resource.URI)
}

func TestContentUnmarshalRejectsUnknownType(t *testing.T) {
	var c Content
	err := json.Unmarshal([]byte(`{"type":"bogus"}`), &c)
	assert.Error(t, err)
}

func TestContentUnmarshalAcceptsKnownTypes(t *testing.T) {
	var c Content
	require.NoError(t, json.Unmarshal([]byte(`{"type":"text","text":"hi"}`), &c))
	assert.Equal(t, "hi", c.Text)
}

func TestResourceContentsIsBlob(t *testing.T) {
	text := ResourceContents{URI: "a", Text: "hi"}
	blob := ResourceContents{URI: "b", Blob: "Zm9v"}
	assert.False(t, text.IsBlob())
	assert.True(t, blob.IsBlob())
}

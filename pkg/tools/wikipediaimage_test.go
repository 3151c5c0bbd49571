package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WikipediaImageSearch and SaveWikipediaImage reach Wikipedia and Google
// over the network with no offline seam, so only tool construction is
// covered here; the search/save logic is exercised via handleCreateCheesyMeme
// and handleMeme's validation paths in svg_test.go and meme_test.go.
func TestGetImageBuildsValidTool(t *testing.T) {
	tool, handler := GetImage()
	assert.Equal(t, "get_image", tool.Name)
	require.NotNil(t, handler)
}

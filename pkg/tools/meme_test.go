package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemeBuildsValidTool(t *testing.T) {
	tool, handler := Meme()
	assert.Equal(t, "meme_tool", tool.Name)
	require.NotNil(t, handler)
}

package tools

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleSearchRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SEARCH_API_KEY", "")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "")
	os.Unsetenv("GOOGLE_SEARCH_API_KEY")
	os.Unsetenv("GOOGLE_SEARCH_ENGINE_ID")

	_, err := googleSearch("golang", 5)
	assert.Error(t, err)
}

func TestHandleGoogleSearchPropagatesMissingCredentials(t *testing.T) {
	os.Unsetenv("GOOGLE_SEARCH_API_KEY")
	os.Unsetenv("GOOGLE_SEARCH_ENGINE_ID")

	_, err := handleGoogleSearch(nil, GoogleSearchArgs{Query: "golang"})
	assert.Error(t, err)
}

func TestGoogleSearchBuildsValidTool(t *testing.T) {
	tool, handler := GoogleSearch()
	assert.Equal(t, "google_search", tool.Name)
	require.NotNil(t, handler)
}

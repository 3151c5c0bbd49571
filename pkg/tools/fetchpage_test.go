package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleFetchPageRequiresURL(t *testing.T) {
	_, err := handleFetchPage(nil, FetchPageArgs{})
	assert.Error(t, err)
}

func TestFetchPageBuildsValidTool(t *testing.T) {
	tool, handler := FetchPage()
	assert.Equal(t, "fetch_page", tool.Name)
	require.NotNil(t, handler)
}

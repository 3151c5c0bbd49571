package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleScreenshotPageRequiresURL(t *testing.T) {
	_, err := handleScreenshotPage(nil, ScreenshotPageArgs{})
	assert.Error(t, err)
}

func TestScreenshotPageBuildsValidTool(t *testing.T) {
	tool, handler := ScreenshotPage()
	assert.Equal(t, "screenshot_page", tool.Name)
	require.NotNil(t, handler)
}

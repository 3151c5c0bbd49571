package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitleFindsTitleTag(t *testing.T) {
	html := "<html><head><title> My Page </title></head><body></body></html>"
	assert.Equal(t, "My Page", extractTitle(html))
}

func TestExtractTitleMissing(t *testing.T) {
	assert.Equal(t, "No title found", extractTitle("<html><body>no title here</body></html>"))
}

func TestExtractDomainAddsSchemeWhenMissing(t *testing.T) {
	domain, err := extractDomain("example.com/path")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", domain)
}

func TestExtractDomainPreservesHTTPScheme(t *testing.T) {
	domain, err := extractDomain("http://example.com/path")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", domain)
}

func TestHandleHTMLToMarkdownRequiresURL(t *testing.T) {
	_, err := handleHTMLToMarkdown(nil, HTMLToMarkdownArgs{})
	assert.Error(t, err)
}

func TestHTMLToMarkdownBuildsValidTool(t *testing.T) {
	tool, handler := HTMLToMarkdown()
	assert.Equal(t, "html_to_markdown", tool.Name)
	require.NotNil(t, handler)
}

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSVGContent = `<svg width="10mm" height="10mm"><path id="p1" d="M 1,1 L 2,2 Z" /></svg>`

func TestNewSVGFromContentParsesPaths(t *testing.T) {
	svg, err := NewSVGFromContent("mysvg", testSVGContent)
	require.NoError(t, err)
	assert.Equal(t, "mysvg", svg.Name)
	assert.Equal(t, 1, svg.Paths.NumPaths())
}

func TestNewSVGFromContentRejectsContentWithoutPaths(t *testing.T) {
	_, err := NewSVGFromContent("empty", `<svg></svg>`)
	assert.Error(t, err)
}

func TestNewSVGFromFileReadsAndParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shape.svg")
	require.NoError(t, os.WriteFile(path, []byte(testSVGContent), 0644))

	svg, err := NewSVGFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shape", svg.Name)
}

func TestNewBlankSVGHasNoPaths(t *testing.T) {
	svg, err := NewBlankSVG()
	require.NoError(t, err)
	assert.Equal(t, 0, svg.Paths.NumPaths())
}

func TestAddTextAppendsEmbeddedText(t *testing.T) {
	svg, err := NewBlankSVG()
	require.NoError(t, err)
	require.NoError(t, svg.AddText("label", "hello", "", 5, 5, 1))
	require.Len(t, svg.Text, 1)
	assert.Equal(t, "hello", svg.Text[0].Content)
}

func TestAddTextRejectsEmptyText(t *testing.T) {
	svg, err := NewBlankSVG()
	require.NoError(t, err)
	assert.Error(t, svg.AddText("label", "", "", 0, 0, 1))
}

func TestAddWrappedTextSplitsLongTextIntoLines(t *testing.T) {
	svg, err := NewBlankSVG()
	require.NoError(t, err)
	style := "font-size: 20px;"
	long := "this is a fairly long caption that should wrap across several lines of text"
	require.NoError(t, svg.AddWrappedText("caption", long, style, 10, 100, 120, 5, 1))
	require.Len(t, svg.Text, 1)
	assert.Greater(t, len(svg.Text[0].Lines), 1)
}

func TestToSVGIncludesHeaderAndDimensions(t *testing.T) {
	svg, err := NewSVGFromContent("mysvg", testSVGContent)
	require.NoError(t, err)
	svg.Width = 100
	svg.Height = 50

	out, err := svg.ToSVG()
	require.NoError(t, err)
	assert.Contains(t, out, `width="100"`)
	assert.Contains(t, out, `height="50"`)
	assert.Contains(t, out, `id="p1"`)
}

func TestToSVGFileWritesToDisk(t *testing.T) {
	svg, err := NewSVGFromContent("mysvg", testSVGContent)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "out.svg")
	require.NoError(t, svg.ToSVGFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

package util

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthesizePNG builds a minimal valid PNG in memory so raster-image tests
// don't depend on a fixture file.
func synthesizePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetermineImageTypePNG(t *testing.T) {
	content := synthesizePNG(t, 40, 30)
	kind, width, height, err := DetermineImageType("photo.png", content)
	require.NoError(t, err)
	assert.Equal(t, "png", kind)
	assert.Equal(t, 40, width)
	assert.Equal(t, 30, height)
}

func TestDetermineImageTypeSVG(t *testing.T) {
	content := []byte(`<?xml version="1.0"?><svg width="100px" height="50px"></svg>`)
	kind, width, height, err := DetermineImageType("image.svg", content)
	require.NoError(t, err)
	assert.Equal(t, "svg", kind)
	assert.Equal(t, 100, width)
	assert.Equal(t, 50, height)
}

func TestDetermineImageTypeRejectsEmptyContent(t *testing.T) {
	_, _, _, err := DetermineImageType("x.png", nil)
	assert.Error(t, err)
}

func TestDetermineImageTypeRejectsUnrecognizedContent(t *testing.T) {
	_, _, _, err := DetermineImageType("", []byte("just some plain text"))
	assert.Error(t, err)
}

func TestExtractPNGDimensions(t *testing.T) {
	content := synthesizePNG(t, 64, 48)
	w, h := ExtractPNGDimensions(content)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
}

func TestExtractSVGDimensionsFromPixelAttributes(t *testing.T) {
	w, h := ExtractSVGDimensions(`<svg width="120px" height="80px">`)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)
}

func TestExtractSVGDimensionsFromViewBoxFallback(t *testing.T) {
	w, h := ExtractSVGDimensions(`<svg viewBox="0 0 200 100">`)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
}

func TestExtractSVGDimensionsConvertsMillimetersUsingDPI(t *testing.T) {
	w, _ := ExtractSVGDimensions(`<svg width="25.4mm" height="25.4mm">`)
	assert.Equal(t, 96, w)
}

func TestNewSVGFromRasterReadsSynthesizedPNGFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, synthesizePNG(t, 32, 16), 0644))

	svg, err := NewSVGFromRaster(path, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 32, svg.Width)
	assert.Equal(t, 16, svg.Height)
	require.Len(t, svg.Images, 1)
	assert.Equal(t, "png", svg.Images[0].Kind)
}

func TestNewSVGFromRasterContentSynthesizedPNG(t *testing.T) {
	svg, err := NewSVGFromRasterContent(synthesizePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, svg.Width)
	assert.Equal(t, 10, svg.Height)
}

func TestSVGWithRasterRendersImageTag(t *testing.T) {
	svg, err := NewSVGFromRasterContent(synthesizePNG(t, 8, 8))
	require.NoError(t, err)
	out, err := svg.ToSVG()
	require.NoError(t, err)
	assert.Contains(t, out, "<image")
	assert.Contains(t, out, "image/png;base64,")
}

package util

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/richard-senior/mcp/internal/logger"
)

///////////////////////////////////////////////////////////////////////////////
/// SVGEmbeddedRaster
///////////////////////////////////////////////////////////////////////////////

// Holds information about raster images that are embedded into SVG files
type SVGEmbeddedRaster struct {
	Layer         int
	X, Y          int
	Name          string
	FilePath      string
	Kind          string
	Width, Height int
	Content       []byte
}

func NewSVGEmbeddedRasterContent(content []byte) (*SVGEmbeddedRaster, error) {
	// First determine the image type and dimensions from the raw content
	kind, width, height, err := DetermineImageType("", content)
	if err != nil {
		return nil, fmt.Errorf("failed to determine image type: %w", err)
	}
	// Then base64 encode the content
	encodedContent := []byte(base64.StdEncoding.EncodeToString(content))

	ret := &SVGEmbeddedRaster{
		X:        0,
		Y:        0,
		Layer:    1,
		Name:     "svgfromcontent",
		Kind:     kind,
		Width:    width,
		Height:   height,
		FilePath: "",
		Content:  encodedContent,
	}
	return ret, nil
}

/**
* Creates a new SVGEmbeddedRaster object for embedding into the SVG object.
* Containins the base64 encoded contents of the raster file at the given path
* @param rasterFilePath string the absolute file path of the raster image to insert
* @param x, y the x and y coordinates (top left corner) of the raster image in the SVG file (default 0,0)
* @param layer the z depth of the embeded image in the svg, default to bottom-most (zero)
* @return An SVGEmbeddedRaster object, or error if the file could not be read
 */
func NewSVGEmbeddedRaster(rasterFilePath string, x, y, layer int) (*SVGEmbeddedRaster, error) {
	if rasterFilePath == "" {
		return nil, fmt.Errorf("rasterFilePath cannot be empty")
	}

	// Read the file content
	content, err := os.ReadFile(rasterFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SVG file: %w", err)
	}

	// Extract the filename without extension to use as the SVG name
	baseName := filepath.Base(rasterFilePath)

	// First determine the image type and dimensions from the raw content
	kind, width, height, err := DetermineImageType(baseName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to determine image type: %w", err)
	}

	// Then base64 encode the content
	encodedContent := []byte(base64.StdEncoding.EncodeToString(content))

	ret := &SVGEmbeddedRaster{
		X:        x,
		Y:        y,
		Layer:    layer,
		Name:     baseName[:len(baseName)-len(filepath.Ext(baseName))],
		Kind:     kind,
		Width:    width,
		Height:   height,
		FilePath: rasterFilePath,
		Content:  encodedContent,
	}
	return ret, nil
}

/*
*
* Returns this object as an SVG image tag for embedding into an SVG file
* @return An SVG <image> tag containing the raster image
TODO decided which layer to put this on?
*/
func (s *SVGEmbeddedRaster) GetAsImageTag() (string, error) {
	if s.Content == nil {
		return "", fmt.Errorf("content is nil")
	}
	if s.Width == 0 || s.Height == 0 {
		return "", fmt.Errorf("width or height is zero")
	}
	ret := fmt.Sprintf(
		`<image x="%d" y="%d" width="%d" height="%d" xlink:href="data:image/%s;base64,%s" />`,
		s.X, s.Y, s.Width, s.Height, s.Kind, s.Content)
	return ret, nil
}

///////////////////////////////////////////////////////////////////////////////
/// SVGEmbeddedText
///////////////////////////////////////////////////////////////////////////////

// Holds information about text that is embedded into SVG files
type SVGEmbeddedText struct {
	Layer       int
	X, Y        int
	Name        string
	Content     string
	Style       string
	MaxWidth    int      // Maximum width for text wrapping
	LineSpacing float64  // Spacing between lines when wrapped
	Lines       []string // Text split into lines for wrapping
}

func NewSVGEmbeddedText(name, text, style string, x, y, layer int) (*SVGEmbeddedText, error) {
	// start by creating the embedded text
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if style == "" {
		style = "font-size: 12px; font-family: Arial; fill: white;"
	}

	ret := &SVGEmbeddedText{
		Layer:       layer,
		X:           x,
		Y:           y,
		Name:        name,
		Content:     text,
		Style:       style,
		MaxWidth:    0,     // Default: no wrapping
		LineSpacing: 1.2,   // Default line spacing factor
		Lines:       []string{text}, // Default: single line
	}
	return ret, nil
}

///////////////////////////////////////////////////////////////////////////////
/// SVG
///////////////////////////////////////////////////////////////////////////////

const SvgHeader string = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="" height=""
    version="1.1"
	xmlns="http://www.w3.org/2000/svg"
	xmlns:svg="http://www.w3.org/2000/svg"
	xmlns:xlink="http://www.w3.org/1999/xlink">
`
const SvgFooter string = `
</svg>
`

// An object for holding, parsing, manipulating and writing SVG files
// We are interested only in Path primatives
type SVG struct {
	Filepath      string
	Name          string
	Images        []*SVGEmbeddedRaster
	Paths         *Paths
	Text          []*SVGEmbeddedText
	Width, Height int
}

func NewBlankSVG() (*SVG, error) {
	paths, err := NewPaths([]*Path{})
	if err != nil {
		return nil, err
	}
	return &SVG{
		Name:     "blank",
		Images:   []*SVGEmbeddedRaster{},
		Filepath: "",
		Paths:    paths,
		Text:     []*SVGEmbeddedText{},
	}, nil
}

// NewSVGFromFile reads an SVG file from the given filepath and creates a new SVG object
func NewSVGFromFile(filePath string) (*SVG, error) {
	// Read the file content
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SVG file: %w", err)
	}

	// Extract the filename without extension to use as the SVG name
	baseName := filepath.Base(filePath)
	name := baseName[:len(baseName)-len(filepath.Ext(baseName))]

	// Use the existing NewSVG constructor with the file content
	return NewSVGFromContent(name, string(content))
}

func NewSVGFromRasterContent(content []byte) (*SVG, error) {
	// start by creating the embedded image
	i, err := NewSVGEmbeddedRasterContent(content)
	if err != nil {
		return nil, err
	}
	ret, err := NewBlankSVG()
	if err != nil {
		return nil, err
	}
	// Make our SVG the same size as the background image
	ret.Width = i.Width
	ret.Height = i.Height
	// Add the image to the SVG
	ret.Images = append(ret.Images, i)
	return ret, nil
}

/**
* Creates a new SVG image and embeds into it an <image> tag
* containing the base64 encoded contents of the raster file at the given path
* @param rasterFilePath string the absolute file path of the raster image to insert
* @return An SVG file containing the raster image, or an error if the file could not be read
 */
func NewSVGFromRaster(rasterFilePath string, x, y, layer int) (*SVG, error) {
	// start by creating the embedded image
	i, err := NewSVGEmbeddedRaster(rasterFilePath, x, y, layer)
	if err != nil {
		return nil, err
	}
	ret, err := NewBlankSVG()
	if err != nil {
		return nil, err
	}
	// Make our SVG the same size as the background image
	ret.Width = i.Width
	ret.Height = i.Height
	// Add the image to the SVG
	ret.Images = append(ret.Images, i)
	return ret, nil
}

// Converts the given svg file content into various structures
func NewSVGFromContent(name string, svgContent string) (*SVG, error) {
	// Regular expression to match the <path> tags
	pathRegex := regexp.MustCompile(`(?i)<path[^>]*>`)
	// Find all matches
	matches := pathRegex.FindAllString(svgContent, -1)

	// If no matches found, return an empty slice
	if len(matches) == 0 {
		return nil, fmt.Errorf("no <path> tags found in SVG content")
	}

	ret, err := NewBlankSVG()
	if err != nil {
		return nil, err
	}
	ret.Name = name

	// Parse each path tag into a Path object; one malformed path shouldn't
	// sink the whole document, so a parse failure is logged and skipped.
	for _, pathTag := range matches {
		path, err := NewPathFromSvgTag(pathTag)
		if err != nil {
			logger.Warn("svg: failed to parse path tag", err)
			continue
		}
		ret.Paths.AddPath(path)
	}

	if ret.Paths.NumPaths() == 0 {
		return nil, fmt.Errorf("failed to parse any valid paths from SVG content")
	}
	return ret, nil
}
func (s *SVG) AddText(name, text, style string, x, y, layer int) error {
	// start by creating the embedded text
	i, err := NewSVGEmbeddedText(name, text, style, x, y, layer)
	if err != nil {
		return err
	}
	s.Text = append(s.Text, i)
	return nil
}

var fontSizeRe = regexp.MustCompile(`font-size:\s*(\d+)px`)

// fontSizeFromStyle pulls the font-size in px out of an inline style
// string, falling back to def when the style has none or fails to parse.
func fontSizeFromStyle(style string, def int) int {
	matches := fontSizeRe.FindStringSubmatch(style)
	if len(matches) <= 1 {
		return def
	}
	var size int
	if _, err := fmt.Sscanf(matches[1], "%d", &size); err != nil || size == 0 {
		return def
	}
	return size
}

// wrapText greedily packs words onto lines no longer than charsPerLine.
// charsPerLine <= 0, or text already short enough, yields a single line.
func wrapText(text string, charsPerLine int) []string {
	if charsPerLine <= 0 || len(text) <= charsPerLine {
		return []string{text}
	}

	words := regexp.MustCompile(`\s+`).Split(text, -1)
	var lines []string
	line := ""
	for _, word := range words {
		if line == "" || len(line)+len(word)+1 <= charsPerLine {
			if line != "" {
				line += " "
			}
			line += word
			continue
		}
		lines = append(lines, line)
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// AddWrappedText adds text that wraps onto multiple lines once it would
// exceed maxWidth, estimating characters-per-line from the style's font
// size (average glyph width ~0.6x font size - good enough for layout,
// not typesetting).
func (s *SVG) AddWrappedText(name, text, style string, x, y, maxWidth, lineSpacing, layer int) error {
	i, err := NewSVGEmbeddedText(name, text, style, x, y, layer)
	if err != nil {
		return err
	}

	i.MaxWidth = maxWidth
	i.LineSpacing = float64(lineSpacing) / 10.0

	fontSize := fontSizeFromStyle(style, 12)
	avgCharWidth := float64(fontSize) * 0.6
	charsPerLine := int(float64(maxWidth) / avgCharWidth)
	i.Lines = wrapText(text, charsPerLine)

	s.Text = append(s.Text, i)
	return nil
}

func (s *SVG) ToSVGFile(filePath string) error {
	svgContent, err := s.ToSVG()
	if err != nil {
		return err
	}
	err = os.WriteFile(filePath, []byte(svgContent), 0644)
	if err != nil {
		return err
	}
	return nil
}

func (s *SVG) ToSVG() (string, error) {
	// Start with the SVG header
	ret := SvgHeader
	// alter SVG width and height
	ret = regexp.MustCompile(`width=""`).ReplaceAllString(ret, fmt.Sprintf(`width="%d"`, s.Width))
	ret = regexp.MustCompile(`height=""`).ReplaceAllString(ret, fmt.Sprintf(`height="%d"`, s.Height))
	// Add all images
	for _, image := range s.Images {
		imageTag, err := image.GetAsImageTag()
		if err != nil {
			return "", err
		}
		ret += imageTag
	}

	// Add all paths
	allpaths, err := s.Paths.ToSVG()
	if err != nil {
		return "", err
	}
	ret += allpaths

	// Add all text elements, splitting multi-line entries across stacked
	// <text> tags spaced by the embedded font size and line spacing.
	for _, text := range s.Text {
		if len(text.Lines) <= 1 {
			ret += fmt.Sprintf(`<text x="%d" y="%d" style="%s">%s</text>`,
				text.X, text.Y, text.Style, text.Content)
			continue
		}

		lineHeight := int(float64(fontSizeFromStyle(text.Style, 24)) * text.LineSpacing)
		for i, line := range text.Lines {
			yPos := text.Y + i*lineHeight
			ret += fmt.Sprintf(`<text x="%d" y="%d" style="%s">%s</text>`,
				text.X, yPos, text.Style, line)
		}
	}

	// Add the SVG footer
	ret += SvgFooter
	return ret, nil
}


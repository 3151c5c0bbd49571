package tools

import (
	"fmt"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
	"github.com/richard-senior/mcp/pkg/util"
)

// SvgArgs is the input schema for svg_tool: a single command plus the
// union of every argument any command accepts.
type SvgArgs struct {
	Command    string `json:"command" jsonschema:"description=One of: create_from_raster, add_text_to_svg, create_cheesy_meme"`
	SourcePath string `json:"sourcepath,omitempty" jsonschema:"description=Absolute filepath of the source image/SVG to work on, or a search term for create_cheesy_meme"`
	DestPath   string `json:"destpath,omitempty" jsonschema:"description=Absolute filepath of the output SVG; defaults to ./output.svg for create_from_raster and ./cheezymeme.svg for create_cheesy_meme and to sourcepath for add_text_to_svg"`
	Text       string `json:"text,omitempty" jsonschema:"description=Text to add to the SVG"`
	Style      string `json:"style,omitempty" jsonschema:"description=CSS styling to apply to the added text element"`
	X          int    `json:"x,omitempty" jsonschema:"description=X coordinate for the added text"`
	Y          int    `json:"y,omitempty" jsonschema:"description=Y coordinate for the added text"`
}

// SvgResult is what svg_tool returns.
type SvgResult struct {
	Location string `json:"location"`
}

// Svg provides a small suite of SVG operations: wrapping a raster image
// as SVG, adding text to an existing SVG, and the meme_tool shortcut
// that does both in one call.
func Svg() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "svg_tool",
		Description: "Provides a suite of functions for processing svg files: create_from_raster, " +
			"add_text_to_svg, create_cheesy_meme.",
	}, handleSvg)
	if err != nil {
		logger.Fatal("building svg_tool tool:", err)
	}
	return tool, handler
}

func handleSvg(ctx *server.ToolContext, args SvgArgs) (SvgResult, error) {
	switch args.Command {
	case "create_from_raster":
		return handleCreateFromRaster(args)
	case "add_text_to_svg":
		return handleAddTextToSvg(args)
	case "create_cheesy_meme":
		return handleCreateCheesyMeme(args)
	default:
		return SvgResult{}, fmt.Errorf("command %s not currently supported", args.Command)
	}
}

func handleCreateFromRaster(args SvgArgs) (SvgResult, error) {
	if args.SourcePath == "" {
		return SvgResult{}, fmt.Errorf("sourcepath is required for create_from_raster")
	}
	svg, err := util.NewSVGFromRaster(args.SourcePath, 0, 0, 0)
	if err != nil {
		return SvgResult{}, fmt.Errorf("loading raster image: %w", err)
	}

	destPath := args.DestPath
	if destPath == "" {
		destPath = "./output.svg"
	}
	if err := svg.ToSVGFile(destPath); err != nil {
		return SvgResult{}, fmt.Errorf("writing svg: %w", err)
	}
	return SvgResult{Location: destPath}, nil
}

func handleAddTextToSvg(args SvgArgs) (SvgResult, error) {
	if args.SourcePath == "" {
		return SvgResult{}, fmt.Errorf("sourcepath is required for add_text_to_svg")
	}
	if args.Text == "" {
		return SvgResult{}, fmt.Errorf("text is required for add_text_to_svg")
	}

	svg, err := util.NewSVGFromFile(args.SourcePath)
	if err != nil {
		return SvgResult{}, fmt.Errorf("loading svg: %w", err)
	}

	if err := svg.AddText("added_text", args.Text, args.Style, args.X, args.Y, 1); err != nil {
		return SvgResult{}, fmt.Errorf("adding text: %w", err)
	}

	destPath := args.DestPath
	if destPath == "" {
		destPath = args.SourcePath
	}
	if err := svg.ToSVGFile(destPath); err != nil {
		return SvgResult{}, fmt.Errorf("writing svg: %w", err)
	}
	return SvgResult{Location: destPath}, nil
}

func handleCreateCheesyMeme(args SvgArgs) (SvgResult, error) {
	if args.SourcePath == "" {
		return SvgResult{}, fmt.Errorf("sourcepath (search term) is required for create_cheesy_meme")
	}

	imageBytes, _, err := WikipediaImageSearch(args.SourcePath, 200)
	if err != nil {
		return SvgResult{}, err
	}

	svg, err := util.NewSVGFromRasterContent(imageBytes)
	if err != nil {
		return SvgResult{}, err
	}

	style := args.Style
	if style == "" {
		style = "font-weight: bold; font-size: 24px; font-family: 'Comic Sans MS'; fill: red;"
	}
	textY := int(float64(svg.Height) * 0.8)
	if err := svg.AddWrappedText("cheezymeme", args.Text, style, 20, textY, svg.Width-60, 30, 1); err != nil {
		return SvgResult{}, err
	}

	destPath := args.DestPath
	if destPath == "" {
		destPath = "./cheezymeme.svg"
	}
	if err := svg.ToSVGFile(destPath); err != nil {
		return SvgResult{}, err
	}
	return SvgResult{Location: destPath}, nil
}

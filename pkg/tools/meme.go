package tools

import (
	"fmt"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
	"github.com/richard-senior/mcp/pkg/util"
)

// MemeArgs is the input schema for meme_tool.
type MemeArgs struct {
	SearchTerm string `json:"searchterm" jsonschema:"description=The subject of the meme; results in a picture being downloaded as the meme's background. Do not embellish unless the plain term fails to yield a result."`
	Text       string `json:"text" jsonschema:"description=The text of the meme. Should be witty or edgy and related to searchterm, no longer than 40 characters."`
	Filepath   string `json:"filepath,omitempty" jsonschema:"description=The absolute filepath in which to store the resulting svg file; defaults to the present working directory."`
}

// MemeResult is what meme_tool returns.
type MemeResult struct {
	Location string `json:"location"`
}

// Meme creates a whimsical meme: a downloaded photograph with wrapped
// caption text rendered as SVG.
func Meme() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "meme_tool",
		Description: "Creates memes designed to amuse in a whimsical manner: a photograph of something " +
			"with some text underneath it. Returns the location of the created image.",
	}, handleMeme)
	if err != nil {
		logger.Fatal("building meme_tool tool:", err)
	}
	return tool, handler
}

func handleMeme(ctx *server.ToolContext, args MemeArgs) (MemeResult, error) {
	imageBytes, _, err := WikipediaImageSearch(args.SearchTerm, 400)
	if err != nil {
		return MemeResult{}, err
	}

	svg, err := util.NewSVGFromRasterContent(imageBytes)
	if err != nil {
		return MemeResult{}, err
	}

	// Font size targets ~5 words of ~5 characters per line; 0.6 approximates
	// character width as a fraction of font size, and 60px is left/right margin.
	averageWordLength := 5
	targetWordsPerLine := 5
	charactersPerLine := averageWordLength * targetWordsPerLine

	fontSize := (svg.Width - 60) / (charactersPerLine * 6 / 10)
	if fontSize < 18 {
		fontSize = 18
	} else if fontSize > 48 {
		fontSize = 60
	}

	fontStyle := fmt.Sprintf("font-weight: bold; font-size: %dpx; font-family: 'Comic Sans MS'; fill: red;", fontSize)

	textYPosition := int(float64(svg.Height) * 0.8)
	svg.AddWrappedText("cheezymeme", args.Text, fontStyle, 20, textYPosition, svg.Width-60, 30, 1)

	outputPath := "./cheezymeme.svg"
	if args.Filepath != "" {
		outputPath = args.Filepath
	}
	logger.Info("saving meme to", outputPath)

	if err := svg.ToSVGFile(outputPath); err != nil {
		return MemeResult{}, err
	}

	return MemeResult{Location: outputPath}, nil
}

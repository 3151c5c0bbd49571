package tools

import (
	"time"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
)

// DateTimeArgs is the input schema for get_datetime. Format is optional;
// an empty value falls back to RFC3339.
type DateTimeArgs struct {
	Format string `json:"format,omitempty" jsonschema:"description=The Go reference layout for the datetime, e.g. 2006-01-02T15:04:05Z07:00"`
}

// DateTimeResult is what get_datetime returns.
type DateTimeResult struct {
	Datetime string `json:"datetime"`
}

// DateTime adapts time.Now formatting into an MCP tool.
func DateTime() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name:        "get_datetime",
		Description: "Returns the current date and time",
	}, handleDateTime)
	if err != nil {
		logger.Fatal("building get_datetime tool:", err)
	}
	return tool, handler
}

func handleDateTime(ctx *server.ToolContext, args DateTimeArgs) (DateTimeResult, error) {
	format := args.Format
	if format == "" {
		format = time.RFC3339
	}
	return DateTimeResult{Datetime: time.Now().Format(format)}, nil
}

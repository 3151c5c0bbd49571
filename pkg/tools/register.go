package tools

import (
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
)

// RegisterDefault wires every built-in tool into s.
func RegisterDefault(s *server.Server) {
	for _, ctor := range []func() (protocol.Tool, server.ToolHandler){
		Calculator,
		DateTime,
		GoogleSearch,
		HTMLToMarkdown,
		FetchPage,
		ScreenshotPage,
		GetImage,
		Meme,
		Svg,
		CheckCodeRules,
		Thoughts,
	} {
		tool, handler := ctor()
		s.RegisterTool(tool, handler)
	}
}

// Command mcp-client is a small demonstration MCP client: it spawns the
// stdio server as a child process, lists its tools, and calls one.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/client"
	"github.com/richard-senior/mcp/pkg/transport"
)

func main() {
	serverCmd := flag.String("server", "mcp", "path to the MCP server binary to spawn")
	toolName := flag.String("tool", "calculator", "name of the tool to call")
	toolArgs := flag.String("args", `{"expression":"2 + 2"}`, "JSON object of tool arguments")
	flag.Parse()

	logger.SetShowDateTime(true)
	logger.SetLevel(logger.INFO)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t, err := transport.NewStdioClientTransport(ctx, *serverCmd, nil, nil)
	if err != nil {
		logger.Fatal("spawning mcp server:", err)
	}

	c := client.New("mcp-demo-client", "1.0.0")
	if err := c.Connect(ctx, t); err != nil {
		logger.Fatal("connecting to server:", err)
	}
	defer c.Close()

	toolsResult, err := c.ListTools(ctx)
	if err != nil {
		logger.Fatal("listing tools:", err)
	}
	fmt.Println("available tools:")
	for _, tool := range toolsResult.Tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(*toolArgs), &args); err != nil {
		logger.Fatal("parsing -args as JSON:", err)
	}

	result, err := c.CallTool(ctx, *toolName, args)
	if err != nil {
		logger.Fatal("calling tool", *toolName, ":", err)
	}

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(output))
	os.Exit(0)
}

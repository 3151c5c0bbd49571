// Command mcp-http runs the Model Context Protocol server over HTTP+SSE:
// GET /sse opens a long-lived event stream per client, POST /message
// carries that client's requests in.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/prompts"
	"github.com/richard-senior/mcp/pkg/resources"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/tools"
	"github.com/richard-senior/mcp/pkg/transport"
)

func main() {
	addr := flag.String("addr", ":8765", "address to listen on")
	basePath := flag.String("base-path", "", "URL path prefix for the sse/message routes")
	resourceDB := flag.String("resource-db", "", "path to the SQLite resource database (defaults to ~/.mcp/resources.db)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.SetShowDateTime(true)
	if *debug {
		logger.SetLevel(logger.DEBUG)
	} else {
		logger.SetLevel(logger.INFO)
	}

	s := server.New("richard-senior-mcp", "1.0.0")
	s.SetInstructions("A Model Context Protocol server exposing calculator, web, image and note-taking tools.")
	s.EnableResourceSubscriptions()

	tools.RegisterDefault(s)

	if err := prompts.NewRegistry().RegisterAll(s); err != nil {
		logger.Error("failed to register prompts:", err)
	}

	dbPath := *resourceDB
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Fatal("resolving home directory:", err)
		}
		if err := os.MkdirAll(home+"/.mcp", 0755); err != nil {
			logger.Fatal("creating .mcp directory:", err)
		}
		dbPath = home + "/.mcp/resources.db"
	}
	resourceRegistry, err := resources.NewRegistry(dbPath)
	if err != nil {
		logger.Fatal("opening resource registry:", err)
	}
	defer resourceRegistry.Close()
	if err := resourceRegistry.RegisterAll(s); err != nil {
		logger.Error("failed to register resources:", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := transport.NewSSEServerTransport(*addr, *basePath)
	logger.Info("listening for MCP clients on", *addr)
	if err := s.ServeHTTP(ctx, st); err != nil {
		logger.Fatal("http server exited with error:", err)
	}
}

// Command mcp runs the Model Context Protocol server over stdio: one
// session for the whole lifetime of the process, talking newline-
// delimited JSON-RPC to whatever host spawned it.
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
	debug := flag.Bool("debug", false, "enable debug logging")
	resourceDB := flag.String("resource-db", "", "path to the SQLite resource database (defaults to ~/.mcp/resources.db)")
	flag.Parse()

	// Send logs to a file, never stdout/stderr, so they never corrupt the
	// JSON-RPC stream on stdio.
	logger.SetLogOutput('f')
	logger.SetShowDateTime(true)
	if *debug {
		logger.SetLevel(logger.DEBUG)
	} else {
		logger.SetLevel(logger.WARN)
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

	t := transport.NewStdioTransport(os.Stdin, os.Stdout)
	if err := s.ServeStdio(ctx, t); err != nil {
		logger.Fatal("stdio server exited with error:", err)
	}
}

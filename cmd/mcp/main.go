package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/doctutor/internal/bootstrap"
	"github.com/akolanti/doctutor/internal/config"
	"github.com/akolanti/doctutor/internal/mcpserver"
	"github.com/akolanti/doctutor/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML settings file")
	flag.Parse()

	settings, err := config.Load(*configPath)
	// stdout carries the protocol
	logger_i.InitWithWriter(os.Stderr, settings.IsProd, settings.SlogLevel())
	logger := logger_i.NewLogger("mcp main")
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.Build(ctx, settings)
	if err != nil {
		logger.Error("Could not build the generation pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	logger.Info("Serving MCP over stdio", "storage", settings.StorageURL)
	if err := mcpserver.NewServer(pipeline.Service).Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
	}
}

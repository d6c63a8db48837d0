package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	handoffmcp "github.com/procampo/whatsapp-bridge/internal/mcp"
	"github.com/procampo/whatsapp-bridge/pkg/logger"
)

const version = "v1.0.0"

// handoff-mcp exposes the agent console to an MCP client over stdio.
// Stdout carries the protocol, so logs go to stderr.
func main() {
	godotenv.Load()

	l := logger.NewWithWriter(os.Getenv("APP_ENV"), os.Stderr)

	baseURL := os.Getenv("BRIDGE_API_URL")
	if baseURL == "" {
		addr := os.Getenv("API_ADDR")
		if addr == "" {
			addr = "127.0.0.1:9876"
		}
		baseURL = "http://" + addr
	}

	server := handoffmcp.NewServer(handoffmcp.NewClient(baseURL), version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l.Info().Str("bridge", baseURL).Msg("handoff MCP server starting")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		l.Fatal().Err(err).Msg("mcp server error")
	}
}

// Package mcp exposes lorekeep's read-only API to AI assistants as MCP tools.
package mcp

import (
	"context"
	"log"
	"os"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// MCPServer serves lorekeep tools over stdio.
type MCPServer struct {
	api     DaemonAPI
	version string
	logger  zerolog.Logger
}

// New creates an MCPServer. Call Run to start serving on stdio.
func New(cfg Config, version string, logger zerolog.Logger) *MCPServer {
	return &MCPServer{
		api:     NewAPIClient(cfg.Daemon),
		version: version,
		logger:  logger.With().Str("component", "mcp").Logger(),
	}
}

// SetDaemonAPI overrides the daemon API client. Intended for testing with a mock.
func (s *MCPServer) SetDaemonAPI(api DaemonAPI) {
	s.api = api
}

// Run registers the tools and serves on stdio until stdin closes or ctx is done.
func (s *MCPServer) Run(ctx context.Context) error {
	srv := mcpserver.NewMCPServer(
		"lorekeep",
		s.version,
		mcpserver.WithRecovery(),
	)

	s.registerTools(srv)

	stdio := mcpserver.NewStdioServer(srv)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	s.logger.Info().Msg("MCP server starting on stdio")
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *MCPServer) registerTools(srv *mcpserver.MCPServer) {
	srv.AddTool(
		mcplib.NewTool("get_settings",
			mcplib.WithDescription("Get the non-sensitive lorekeep settings: LLM provider and model, embedding provider and model, chunk size and overlap"),
			mcplib.WithReadOnlyHintAnnotation(true),
		),
		s.handleGetSettings,
	)

	srv.AddTool(
		mcplib.NewTool("get_status",
			mcplib.WithDescription("Get lorekeepd status including uptime and whether a configuration is loaded"),
			mcplib.WithReadOnlyHintAnnotation(true),
		),
		s.handleGetStatus,
	)
}

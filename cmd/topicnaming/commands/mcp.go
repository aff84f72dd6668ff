// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents browse stored topic hierarchies via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/topicnaming/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Serves stored topic naming runs over MCP (Model Context Protocol) on
stdio. Agents can list runs, browse layers, inspect topic evidence,
look up a document's topics and search topic names.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  topicnaming mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "topics": {
  #       "command": "topicnaming",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY not set - search_topics will only match by substring")
	}

	store, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer(
		"Topic Naming",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, store, logger)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", "db", cfg.DBPath)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, closing storage")
		if err := store.Close(); err != nil {
			logger.Warn("error closing storage", "err", err)
		}
	case err := <-serverErr:
		_ = store.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"x2ansible/internal/logging"
	mcpserver "x2ansible/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio for agent-driven migrations",
	Long: `Starts an MCP server over stdin/stdout. An agent connects and acts as the
producer: it pulls conversion tasks with get_next_task and answers with
submit_result, while the server drives budgets, validation and the report.

The server watches for parent process death and self-terminates so a
disconnected agent host does not leave zombie processes behind.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := mcpserver.NewServer(version)
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting x2ansible MCP server over stdio")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

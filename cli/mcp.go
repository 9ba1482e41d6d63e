// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/crmgrid/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, app *App) error {
	app.Logger.Info("starting CRM MCP server", "version", handlers.Version)

	server := handlers.NewServer(app.Client, handlers.Options{
		Prefs:  app.Prefs,
		Owner:  app.Config.Owner,
		Logger: app.Logger,
	})
	return server.Run(ctx, &mcp.StdioTransport{})
}

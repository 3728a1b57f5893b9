// ABOUTME: MCP server subcommand
// ABOUTME: Serves the field sales tools over stdio for desktop assistants
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/fieldforce/handlers"
	"github.com/harperreed/fieldforce/logging"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, app *App, version string) error {
	logging.Info("starting MCP server", "version", version, "crm_mode", app.Config.CRM.Mode)

	server := handlers.NewServer(app.Service, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"snapcheck/internal/logging"
	mcpserver "snapcheck/internal/mcp"
)

var serveFlags struct {
	fixtureDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing snapshot tools
(list_tests, get_record, verify_content, validate_file) for editor and
agent integration.

The server monitors for parent process death and self-terminates when the
spawning process disconnects.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.fixtureDir, "fixtures", "fixtures", "Fixture directory root")
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := mcpserver.NewServer(serveFlags.fixtureDir)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting snapcheck MCP server over stdio", "fixtures", serveFlags.fixtureDir)
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

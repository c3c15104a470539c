package main

import (
	"log"
	"os"

	"github.com/aretw0/auticonnect"
	"github.com/aretw0/auticonnect/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server over Standard Input/Output.
Agents can send chat events with the send_event tool and read groups with
list_groups. Logs go to stderr so they never corrupt the JSON-RPC stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		srv := mcp.NewServer(a.engine, auticonnect.Version, mcp.WithLogger(a.logger))
		a.logger.Info("Starting AutiConnect MCP Server (Stdio)")
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

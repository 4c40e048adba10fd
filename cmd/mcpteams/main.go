package main

import (
	"fmt"
	"os"

	"github.com/aech-ai/mcp-teams/internal/cli"
	"github.com/aech-ai/mcp-teams/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcpteams",
		Short: "mcp-teams CLI - hybrid search over conversational content",
		Long: `mcp-teams CLI provides commands to index and search content
through a running mcpteamsd daemon.

Environment variables:
  MCPTEAMS_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.IndexCmd())
	rootCmd.AddCommand(client.BulkCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.CountCmd())
	rootCmd.AddCommand(client.DeleteCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

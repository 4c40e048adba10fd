package main

import (
	"fmt"
	"os"

	"github.com/aech-ai/mcp-teams/internal/cli"
	"github.com/aech-ai/mcp-teams/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mcpteamsd",
		Short: "mcp-teams daemon",
		Long:  "mcp-teams daemon for running the hybrid search API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

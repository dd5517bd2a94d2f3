package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/groundqa/internal/cli"
	"github.com/cloo-solutions/groundqa/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "groundqa",
		Short: "GroundQA CLI - ask questions against your documents",
		Long: `GroundQA CLI talks to a groundqad server.

Environment variables:
  GROUNDQA_API_URL       API base URL (default: http://localhost:8080)
  GROUNDQA_ADMIN_TOKEN   Admin token, only needed for reload`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	rootCmd.PersistentFlags().String("admin-token", "", "Admin token (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.AudioCmd())
	rootCmd.AddCommand(client.ReloadCmd())
	rootCmd.AddCommand(client.ConfigCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/groundqa/internal/cli"
	"github.com/cloo-solutions/groundqa/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "groundqad",
		Short: "GroundQA server and index tooling",
		Long:  "GroundQA daemon for serving grounded question answering and audio search, and for building its index artifacts",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.AudioIndexCmd())
	rootCmd.AddCommand(admin.ArtifactsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ReloadResponse reports the artifacts served after a reload.
type ReloadResponse struct {
	TextEntries     int  `json:"text_entries"`
	TextDimension   int  `json:"text_dimension"`
	TextLoaded      bool `json:"text_loaded"`
	AudioRows       int  `json:"audio_rows"`
	AudioSearchable int  `json:"audio_searchable"`
	AudioLoaded     bool `json:"audio_loaded"`
}

// ReloadCmd creates the reload command.
func ReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload the server's index artifacts",
		Long:  "Asks the server to reload its artifacts from disk. Requires the admin token.",
		Args:  cobra.NoArgs,
		RunE:  runReload,
	}
}

func runReload(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var resp ReloadResponse
	if err := api.PostInto(cmd.Context(), "/admin/reload", nil, &resp); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "Text index: %d entries (dimension %d)\n", resp.TextEntries, resp.TextDimension)
	if resp.AudioLoaded {
		fmt.Fprintf(w, "Audio table: %d rows, %d searchable\n", resp.AudioRows, resp.AudioSearchable)
	}
	return nil
}

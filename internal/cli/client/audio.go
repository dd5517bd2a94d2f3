package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// AudioSearchRequest represents the audio search API request.
type AudioSearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// AudioHit is one matched transcript segment.
type AudioHit struct {
	OriginalFile  string  `json:"original_file"`
	ChunkID       int     `json:"chunk_id"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	Transcription string  `json:"transcription"`
	Score         float64 `json:"score"`
	ChunkName     string  `json:"chunk_name"`
	ChunkPath     string  `json:"chunk_path,omitempty"`
	URL           string  `json:"url,omitempty"`
}

// AudioSearchResponse represents the audio search API response.
type AudioSearchResponse struct {
	Best   AudioHit   `json:"best"`
	Others []AudioHit `json:"others"`
}

// AudioCmd creates the audio command.
func AudioCmd() *cobra.Command {
	var (
		k    int
		save string
	)

	cmd := &cobra.Command{
		Use:   "audio <query>",
		Short: "Find the audio segment that matches a query",
		Long: `Finds the transcript segment closest to the query and prints where it lives.
With --save the matching media chunk is downloaded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudio(cmd, AudioSearchRequest{Query: strings.Join(args, " "), K: k}, save)
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of candidate segments (default: server AUDIO_TOP_K)")
	cmd.Flags().StringVar(&save, "save", "", "Download the best matching chunk to this path")

	return cmd
}

func runAudio(cmd *cobra.Command, req AudioSearchRequest, save string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var resp AudioSearchResponse
	if err := api.PostInto(cmd.Context(), "/audio/search", req, &resp); err != nil {
		return fmt.Errorf("audio search failed: %w", err)
	}

	if save != "" {
		if err := api.DownloadFileWithProgress(cmd.Context(), chunkURL(api, resp.Best), save, progressPrinter(cmd.ErrOrStderr())); err != nil {
			return fmt.Errorf("failed to download %s: %w", resp.Best.ChunkName, err)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	w := cmd.OutOrStdout()
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	printHit(w, resp.Best)
	if save != "" {
		fmt.Fprintf(w, "   Saved: %s\n", save)
	}
	if len(resp.Others) > 0 {
		fmt.Fprintf(w, "\nOther matches:\n")
		for _, hit := range resp.Others {
			fmt.Fprintf(w, "  %s #%d %.1fs-%.1fs (%.3f)\n", hit.OriginalFile, hit.ChunkID, hit.StartTime, hit.EndTime, hit.Score)
		}
	}
	return nil
}

func printHit(w io.Writer, hit AudioHit) {
	fmt.Fprintf(w, "%s #%d %.1fs-%.1fs (%.3f)\n", hit.OriginalFile, hit.ChunkID, hit.StartTime, hit.EndTime, hit.Score)
	fmt.Fprintf(w, "   %s\n", truncate(hit.Transcription, 100))
	fmt.Fprintf(w, "   Chunk: %s\n", hit.ChunkName)
}

// chunkURL prefers a presigned URL and falls back to the server's chunk route.
func chunkURL(api *APIClient, hit AudioHit) string {
	if hit.URL != "" {
		return hit.URL
	}
	return strings.TrimRight(api.BaseURL(), "/") + "/audio/chunks/" + url.PathEscape(hit.ChunkName)
}

func progressPrinter(w io.Writer) ProgressFunc {
	return func(current, total int64) {
		if total > 0 {
			fmt.Fprintf(w, "\rDownloading... %d%%", current*100/total)
			return
		}
		fmt.Fprintf(w, "\rDownloading... %d bytes", current)
	}
}

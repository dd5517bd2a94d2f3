package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query     string   `json:"query"`
	K         int      `json:"k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Results  []Source `json:"results"`
	Grounded bool     `json:"grounded"`
	TopScore float64  `json:"top_score"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		k         int
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the text index",
		Long:  "Ranks indexed passages by similarity to the query without generating an answer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := SearchRequest{Query: strings.Join(args, " "), K: k}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			return runSearch(cmd, req)
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of passages to return (default: server TOP_K)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Relevance threshold in [-1, 1] (default: server setting)")

	return cmd
}

func runSearch(cmd *cobra.Command, req SearchRequest) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var searchResp SearchResponse
	if err := api.PostInto(cmd.Context(), "/search", req, &searchResp); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	grounded := "no"
	if searchResp.Grounded {
		grounded = "yes"
	}
	fmt.Fprintf(w, "Found %d results (grounded: %s):\n\n", len(searchResp.Results), grounded)
	for i, result := range searchResp.Results {
		fmt.Fprintf(w, "%d. %s #%d (%.3f)\n", i+1, result.SourceFile, result.ChunkID, result.Score)
		fmt.Fprintf(w, "   %s\n", truncate(result.Text, 100))
		if i < len(searchResp.Results)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
	}
	return nil
}

package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the generate API request.
type AskRequest struct {
	Question string `json:"question"`
}

// Source is one chunk used to ground an answer.
type Source struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	SourceFile string  `json:"source_file"`
	Score      float64 `json:"score"`
}

// AskResponse represents the generate API response.
type AskResponse struct {
	Response string   `json:"response"`
	Grounded bool     `json:"grounded"`
	Sources  []Source `json:"sources"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question",
		Long: `Asks the server a question. The answer is grounded in the indexed documents
when relevant passages are found, and falls back to general knowledge otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), showSources)
		},
	}

	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Print the passages the answer was grounded in")

	return cmd
}

func runAsk(cmd *cobra.Command, question string, showSources bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var resp AskResponse
	if err := api.PostInto(cmd.Context(), "/generate", AskRequest{Question: question}, &resp); err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintln(w, resp.Response)
	if !resp.Grounded {
		fmt.Fprintln(w, "\n(no relevant passages found; answered from general knowledge)")
		return nil
	}
	if showSources {
		printSources(w, resp.Sources)
	}
	return nil
}

func printSources(w io.Writer, sources []Source) {
	fmt.Fprintf(w, "\nSources:\n")
	for i, s := range sources {
		fmt.Fprintf(w, "%d. %s #%d (%.3f)\n", i+1, s.SourceFile, s.ChunkID, s.Score)
		fmt.Fprintf(w, "   %s\n", truncate(s.Text, 100))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

package admin

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/index"
	"github.com/cloo-solutions/groundqa/internal/service"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the text index",
		Long: `Chunk every *.txt file in --src into sentence windows, embed the chunks and
write embeddings.bin and chunks.json to --out.`,
		RunE: runIndex,
	}

	cmd.Flags().String("src", "", "Directory with source .txt files")
	cmd.Flags().String("out", "", "Output directory (default: GROUNDQA_INDEX_DIR)")
	cmd.Flags().String("merged", "", "Also write the concatenated sources to this file")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("src")

	return cmd
}

type indexResult struct {
	Out       string `json:"out"`
	Entries   int    `json:"entries"`
	Dimension int    `json:"dimension"`
	*service.BuildReport
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	src, _ := cmd.Flags().GetString("src")
	out, _ := cmd.Flags().GetString("out")
	merged, _ := cmd.Flags().GetString("merged")
	if out == "" {
		out = cfg.IndexDir
	}

	files, err := service.SourceFiles(src)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .txt files found in %s", src)
	}

	if merged != "" {
		data, err := service.MergeSources(files)
		if err != nil {
			return err
		}
		if err := os.WriteFile(merged, data, 0o644); err != nil {
			return fmt.Errorf("failed to write merged text: %w", err)
		}
		logger.Info("merged sources written", zap.String("path", merged), zap.Int("files", len(files)))
	}

	builder, err := newIndexBuilder(cfg, logger)
	if err != nil {
		return err
	}

	store, report, err := builder.BuildText(cmd.Context(), files)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := store.Save(out); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	result := indexResult{Out: out, Entries: store.Size(), Dimension: store.Dimension(), BuildReport: report}
	return printResult(cmd, result, func(w io.Writer) {
		fmt.Fprintf(w, "Index written to %s: %d chunks from %d files (dimension %d)\n",
			out, store.Size(), report.Files, store.Dimension())
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "  skipped %s: fewer sentences than the chunk window\n", s)
		}
		for _, p := range index.ArtifactPaths(out) {
			fmt.Fprintf(w, "  %s\n", p)
		}
	})
}

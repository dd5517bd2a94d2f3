package admin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/groundqa/internal/audio"
)

// AudioIndexCmd returns the audio-index command
func AudioIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio-index",
		Short: "Build the audio segment table",
		Long: `Read a segmentation manifest (audio_file,start_time,end_time,segment_file[,transcription]),
embed each transcription and write the segment table CSV.`,
		RunE: runAudioIndex,
	}

	cmd.Flags().String("segments", "", "Segmentation manifest CSV")
	cmd.Flags().String("out", "", "Output table path (default: GROUNDQA_AUDIO_TABLE)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("segments")

	return cmd
}

type audioIndexResult struct {
	Out        string `json:"out"`
	Rows       int    `json:"rows"`
	Searchable int    `json:"searchable"`
	Dimension  int    `json:"dimension"`
}

func runAudioIndex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	segments, _ := cmd.Flags().GetString("segments")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.AudioTable
	}
	if out == "" {
		return fmt.Errorf("--out or GROUNDQA_AUDIO_TABLE is required")
	}

	f, err := os.Open(segments)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	rows, err := audio.ReadManifest(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	builder, err := newIndexBuilder(cfg, logger)
	if err != nil {
		return err
	}

	table, err := builder.BuildAudio(cmd.Context(), rows)
	if err != nil {
		return fmt.Errorf("failed to build audio table: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := table.Save(out); err != nil {
		return fmt.Errorf("failed to save audio table: %w", err)
	}

	result := audioIndexResult{Out: out, Rows: table.Len(), Searchable: table.Searchable(), Dimension: table.Dimension()}
	return printResult(cmd, result, func(w io.Writer) {
		fmt.Fprintf(w, "Audio table written to %s: %d rows, %d searchable (dimension %d)\n",
			out, result.Rows, result.Searchable, result.Dimension)
	})
}

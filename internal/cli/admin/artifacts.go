package admin

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/groundqa/internal/config"
	"github.com/cloo-solutions/groundqa/internal/service"
)

// ArtifactsCmd returns the artifacts command
func ArtifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Mirror index artifacts to and from S3",
		Long:  "Upload or download embeddings.bin, chunks.json and the audio table under GROUNDQA_S3_PREFIX",
	}

	cmd.AddCommand(ArtifactsPushCmd())
	cmd.AddCommand(ArtifactsPullCmd())

	return cmd
}

func ArtifactsPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload local artifacts",
		RunE:  runArtifactsPush,
	}

	cmd.Flags().Bool("chunks", false, "Also upload the media chunks from GROUNDQA_AUDIO_CHUNK_ROOT")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func ArtifactsPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download artifacts into the local artifact paths",
		RunE:  runArtifactsPull,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

type artifactsResult struct {
	Files  []string `json:"files"`
	Chunks int      `json:"chunks,omitempty"`
}

func artifactFiles(cfg *config.Config) []string {
	artifacts := service.Artifacts{IndexDir: cfg.IndexDir, AudioTable: cfg.AudioTable}
	return artifacts.Paths()
}

func runArtifactsPush(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	mirror, err := newMirror(cmd.Context(), cfg, logger, true)
	if err != nil {
		return err
	}

	files := artifactFiles(cfg)
	if err := mirror.Push(cmd.Context(), files); err != nil {
		return fmt.Errorf("failed to push artifacts: %w", err)
	}

	result := artifactsResult{Files: files}
	if withChunks, _ := cmd.Flags().GetBool("chunks"); withChunks {
		n, err := mirror.PushChunks(cmd.Context(), cfg.AudioChunkRoot)
		if err != nil {
			return fmt.Errorf("failed to push media chunks: %w", err)
		}
		result.Chunks = n
	}

	return printResult(cmd, result, func(w io.Writer) {
		for _, f := range files {
			fmt.Fprintf(w, "pushed %s -> s3://%s/%s\n", f, cfg.S3Bucket, mirror.Key(filepath.Base(f)))
		}
		if result.Chunks > 0 {
			fmt.Fprintf(w, "pushed %d media chunks\n", result.Chunks)
		}
	})
}

func runArtifactsPull(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	mirror, err := newMirror(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}

	files := artifactFiles(cfg)
	if err := mirror.Pull(cmd.Context(), files); err != nil {
		return fmt.Errorf("failed to pull artifacts: %w", err)
	}

	return printResult(cmd, artifactsResult{Files: files}, func(w io.Writer) {
		for _, f := range files {
			fmt.Fprintf(w, "pulled s3://%s/%s -> %s\n", cfg.S3Bucket, mirror.Key(filepath.Base(f)), f)
		}
	})
}

package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/chunker"
	"github.com/cloo-solutions/groundqa/internal/config"
	"github.com/cloo-solutions/groundqa/internal/logging"
	"github.com/cloo-solutions/groundqa/internal/openai"
	"github.com/cloo-solutions/groundqa/internal/service"
	"github.com/cloo-solutions/groundqa/internal/storage"
)

// loadConfig loads the environment and builds the logger every command uses.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logging.Must(cfg.Debug), nil
}

func newEmbedder(cfg *config.Config) (*openai.Embedder, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("GROUNDQA_OPENAI_API_KEY is required")
	}
	return openai.NewEmbedder(openai.EmbedderConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		BatchSize:  cfg.EmbedBatchSize,
		Timeout:    cfg.EmbedTimeout,
	}), nil
}

func newGenerator(cfg *config.Config) *openai.Generator {
	return openai.NewGenerator(openai.GeneratorConfig{
		APIKey:      cfg.GenerationKey(),
		BaseURL:     cfg.GenerationBaseURL,
		Model:       cfg.GenerationModel,
		Temperature: cfg.GenerationTemperature,
		MaxTokens:   cfg.GenerationMaxTokens,
		Timeout:     cfg.GenerateTimeout,
	})
}

func newIndexBuilder(cfg *config.Config, logger *zap.Logger) (*service.IndexBuilder, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	splitter, err := chunker.NewSplitter(cfg.SentenceSplitter)
	if err != nil {
		return nil, err
	}
	c, err := chunker.New(splitter, cfg.ChunkWindow)
	if err != nil {
		return nil, err
	}
	return service.NewIndexBuilder(c, embedder, service.BuildConfig{
		BatchSize:   cfg.EmbedBatchSize,
		Concurrency: cfg.EmbedConcurrency,
	}, logger), nil
}

func newMirror(ctx context.Context, cfg *config.Config, logger *zap.Logger, ensureBucket bool) (*storage.Mirror, error) {
	if !cfg.HasS3() {
		return nil, fmt.Errorf("S3 is not configured: GROUNDQA_S3_ENDPOINT, GROUNDQA_S3_ACCESS_KEY_ID and GROUNDQA_S3_SECRET_ACCESS_KEY are required")
	}
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if ensureBucket {
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
	}
	return storage.NewMirror(client, cfg.S3Prefix, logger), nil
}

// printResult writes v as indented JSON when --output json is set, and text
// otherwise.
func printResult(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	format, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()
	if format == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	text(w)
	return nil
}

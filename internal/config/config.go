package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "GROUNDQA"

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Debug       bool   `envconfig:"DEBUG" default:"false"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	AdminToken  string `envconfig:"ADMIN_TOKEN"`

	IndexDir       string `envconfig:"INDEX_DIR" default:"text_embeddings"`
	AudioTable     string `envconfig:"AUDIO_TABLE"`
	AudioChunkRoot string `envconfig:"AUDIO_CHUNK_ROOT" default:"chunks"`

	RelevanceThreshold float64 `envconfig:"RELEVANCE_THRESHOLD" default:"0.4"`
	TopK               int     `envconfig:"TOP_K" default:"5"`
	AudioTopK          int     `envconfig:"AUDIO_TOP_K" default:"5"`
	ChunkWindow        int     `envconfig:"CHUNK_WINDOW" default:"3"`
	SentenceSplitter   string  `envconfig:"SENTENCE_SPLITTER" default:"punkt"`

	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	EmbeddingBaseURL    string        `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"0"`
	EmbedBatchSize      int           `envconfig:"EMBED_BATCH_SIZE" default:"32"`
	EmbedConcurrency    int           `envconfig:"EMBED_CONCURRENCY" default:"4"`
	EmbedTimeout        time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`

	GenerationAPIKey      string        `envconfig:"GENERATION_API_KEY"`
	GenerationBaseURL     string        `envconfig:"GENERATION_BASE_URL"`
	GenerationModel       string        `envconfig:"GENERATION_MODEL" default:"llama3-8b-8192"`
	GenerationTemperature float32       `envconfig:"GENERATION_TEMPERATURE" default:"0.3"`
	GenerationMaxTokens   int           `envconfig:"GENERATION_MAX_TOKENS" default:"500"`
	GenerateTimeout       time.Duration `envconfig:"GENERATE_TIMEOUT" default:"60s"`

	// 0 disables the artifact reload worker
	ReloadInterval time.Duration `envconfig:"RELOAD_INTERVAL" default:"30s"`
	CORSOrigins    []string      `envconfig:"CORS_ORIGINS" default:"*"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"groundqa-artifacts"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"artifacts"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks ranges that envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.RelevanceThreshold < -1 || c.RelevanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("RELEVANCE_THRESHOLD must be within [-1, 1], got %v", c.RelevanceThreshold))
	}
	if c.ChunkWindow < 1 {
		errs = append(errs, fmt.Errorf("CHUNK_WINDOW must be at least 1, got %d", c.ChunkWindow))
	}
	if c.TopK < 1 {
		errs = append(errs, fmt.Errorf("TOP_K must be at least 1, got %d", c.TopK))
	}
	if c.AudioTopK < 1 {
		errs = append(errs, fmt.Errorf("AUDIO_TOP_K must be at least 1, got %d", c.AudioTopK))
	}
	if c.EmbeddingDimensions < 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIMENSIONS cannot be negative"))
	}
	if c.EmbedBatchSize < 1 {
		errs = append(errs, fmt.Errorf("EMBED_BATCH_SIZE must be at least 1, got %d", c.EmbedBatchSize))
	}
	if c.EmbedConcurrency < 1 {
		errs = append(errs, fmt.Errorf("EMBED_CONCURRENCY must be at least 1, got %d", c.EmbedConcurrency))
	}
	if c.ReloadInterval < 0 {
		errs = append(errs, fmt.Errorf("RELOAD_INTERVAL cannot be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasAudio() bool {
	return c.AudioTable != ""
}

// GenerationKey returns the key for the chat endpoint, falling back to the
// embeddings key when both live on the same provider.
func (c *Config) GenerationKey() string {
	if c.GenerationAPIKey != "" {
		return c.GenerationAPIKey
	}
	return c.OpenAIAPIKey
}

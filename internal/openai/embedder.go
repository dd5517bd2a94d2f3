package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

const (
	// DefaultEmbeddingModel is the model used when none is configured
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultBatchSize is the number of texts sent per embeddings request
	DefaultBatchSize = 32
	// DefaultEmbedTimeout bounds a single embeddings request
	DefaultEmbedTimeout = 30 * time.Second
)

var (
	// ErrNoEmbeddingData is returned when the endpoint answers without vectors
	ErrNoEmbeddingData = errors.New("no embedding data returned")
	// ErrBadEmbeddingIndex is returned when a response index is out of range or repeated
	ErrBadEmbeddingIndex = errors.New("embedding response has invalid index")
)

// EmbeddingAPI defines the interface for embedding generation. Implementations
// return one vector per input text, in input order.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIAdapter calls any OpenAI-compatible /embeddings endpoint.
type OpenAIAdapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func NewOpenAIAdapter(apiKey, baseURL string, model openai.EmbeddingModel, dimensions int) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client:     newClient(apiKey, baseURL),
		model:      model,
		dimensions: dimensions,
	}
}

// CreateEmbeddings calls the embeddings endpoint and reorders the response by
// its index field.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      a.model,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, ErrNoEmbeddingData
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) || out[d.Index] != nil {
			return nil, fmt.Errorf("%w: %d", ErrBadEmbeddingIndex, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// EmbedderConfig configures an Embedder.
type EmbedderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
}

// Embedder maps text to fixed-length vectors. When no dimensionality is
// configured, the length of the first vector received becomes the expected one.
type Embedder struct {
	api       EmbeddingAPI
	dims      atomic.Int64
	batchSize int
	timeout   time.Duration
}

// NewEmbedder creates an Embedder backed by the OpenAI-compatible adapter.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	api := NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, openai.EmbeddingModel(cfg.Model), cfg.Dimensions)
	return NewEmbedderWithAPI(api, cfg)
}

// NewEmbedderWithAPI creates an Embedder on top of an arbitrary EmbeddingAPI.
func NewEmbedderWithAPI(api EmbeddingAPI, cfg EmbedderConfig) *Embedder {
	e := &Embedder{
		api:       api,
		batchSize: cfg.BatchSize,
		timeout:   cfg.Timeout,
	}
	if e.batchSize <= 0 {
		e.batchSize = DefaultBatchSize
	}
	if e.timeout <= 0 {
		e.timeout = DefaultEmbedTimeout
	}
	if cfg.Dimensions > 0 {
		e.dims.Store(int64(cfg.Dimensions))
	}
	return e
}

// Dimensions returns the expected vector length, 0 if not yet known.
func (e *Embedder) Dimensions() int {
	return int(e.dims.Load())
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per text, in input order. Texts are sent in
// requests of at most BatchSize items.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, domain.InvalidInput("text %d is empty", i)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vectors, err := e.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vectors, err := e.api.CreateEmbeddings(ctx, texts)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.EmbeddingFailure("embedding request timed out", err)
		}
		return nil, domain.EmbeddingFailure("failed to create embeddings", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.EmbeddingFailure("wrong number of embeddings",
			fmt.Errorf("sent %d texts, received %d vectors", len(texts), len(vectors)))
	}

	for i, v := range vectors {
		if err := e.checkDimensions(v); err != nil {
			return nil, domain.EmbeddingFailure(fmt.Sprintf("embedding %d has wrong dimensions", i), err)
		}
	}
	return vectors, nil
}

func (e *Embedder) checkDimensions(v []float32) error {
	if len(v) == 0 {
		return errors.New("empty vector")
	}
	e.dims.CompareAndSwap(0, int64(len(v)))
	if expected := e.Dimensions(); len(v) != expected {
		return fmt.Errorf("got %d, expected %d", len(v), expected)
	}
	return nil
}

func newClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

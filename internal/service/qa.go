package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/metrics"
	"github.com/cloo-solutions/groundqa/internal/prompt"
	"github.com/cloo-solutions/groundqa/internal/retrieval"
	"github.com/cloo-solutions/groundqa/internal/telemetry"
)

// Embedder maps text to vectors
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator completes a prompt under a system instruction
type Generator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Source is a chunk that was handed to the generator as context.
type Source struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	SourceFile string  `json:"source_file"`
	Score      float64 `json:"score"`
}

// Answer is the outcome of a question.
type Answer struct {
	Response string   `json:"response"`
	Grounded bool     `json:"grounded"`
	Sources  []Source `json:"sources"`
}

// QAConfig holds the retrieval defaults.
type QAConfig struct {
	TopK      int
	Threshold float64
}

// QAService answers questions from the text index, falling back to general
// knowledge when nothing relevant is retrieved.
type QAService struct {
	holder    *Holder
	retriever *retrieval.Retriever
	generator Generator
	cfg       QAConfig
	logger    *zap.Logger
}

func NewQAService(holder *Holder, embedder Embedder, generator Generator, cfg QAConfig, logger *zap.Logger) *QAService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QAService{
		holder:    holder,
		retriever: retrieval.New(instrumentedEmbedder{embedder}, holder),
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Defaults returns the configured k and threshold.
func (s *QAService) Defaults() QAConfig {
	return s.cfg
}

// Search runs retrieval only. Zero k and a nil threshold use the defaults.
func (s *QAService) Search(ctx context.Context, query string, k int, threshold *float64) (*retrieval.Outcome, error) {
	if s.holder.Store() == nil {
		return nil, domain.ErrIndexNotLoaded
	}
	if k == 0 {
		k = s.cfg.TopK
	}
	t := s.cfg.Threshold
	if threshold != nil {
		t = *threshold
	}
	if t < -1 || t > 1 {
		return nil, domain.InvalidInput("threshold must be within [-1, 1], got %v", t)
	}

	ctx, span := telemetry.StartSpan(ctx, "retrieval.retrieve", telemetry.SpanAttributes{Operation: "retrieve", K: k})
	out, err := s.retriever.Retrieve(ctx, query, k, t)
	span.Finish(err)
	if err != nil {
		return nil, err
	}

	metrics.ObserveRetrieval(out.Grounded, out.TopScore(), len(out.Results) > 0)
	s.logger.Debug("retrieval finished",
		zap.Int("k", k),
		zap.Int("results", len(out.Results)),
		zap.Float64("top_score", out.TopScore()),
		zap.Bool("grounded", out.Grounded))
	return out, nil
}

// Ask retrieves context for question, composes the grounded or general
// prompt and returns the generated answer.
func (s *QAService) Ask(ctx context.Context, question string) (*Answer, error) {
	out, err := s.Search(ctx, question, s.cfg.TopK, nil)
	if err != nil {
		return nil, err
	}

	p, err := prompt.Compose(question, out.Results, out.Grounded)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "generation.complete", telemetry.SpanAttributes{Operation: "complete"})
	start := time.Now()
	response, err := s.generator.Complete(ctx, prompt.SystemMessage, p)
	metrics.CapabilityCallDuration.WithLabelValues("generation", metrics.Status(err)).Observe(time.Since(start).Seconds())
	span.Finish(err)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	answer := &Answer{Response: response, Grounded: out.Grounded, Sources: []Source{}}
	if out.Grounded {
		for _, r := range out.Results {
			answer.Sources = append(answer.Sources, Source{
				ChunkID:    r.Chunk.ID,
				Text:       r.Chunk.Text,
				SourceFile: r.Chunk.SourceFile,
				Score:      r.Score,
			})
		}
	}

	s.logger.Info("question answered",
		zap.Bool("grounded", answer.Grounded),
		zap.Int("sources", len(answer.Sources)))
	return answer, nil
}

// instrumentedEmbedder records call duration and a span around each query embedding.
type instrumentedEmbedder struct {
	Embedder
}

func (e instrumentedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := telemetry.StartSpan(ctx, "embedding.embed", telemetry.SpanAttributes{Operation: "embed", InputCount: 1})
	start := time.Now()
	v, err := e.Embedder.Embed(ctx, text)
	metrics.CapabilityCallDuration.WithLabelValues("embedding", metrics.Status(err)).Observe(time.Since(start).Seconds())
	span.Finish(err)
	return v, err
}

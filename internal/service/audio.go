package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/telemetry"
)

// ChunkURLSigner returns a time-limited download URL for a media chunk.
type ChunkURLSigner interface {
	ChunkURL(ctx context.Context, name string) (string, error)
}

// AudioHit is a matched segment and where to play it.
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

// AudioResult is the best playable match plus the other ranked candidates.
type AudioResult struct {
	Best   AudioHit   `json:"best"`
	Others []AudioHit `json:"others"`
}

// AudioService finds the transcript segment closest to a query and resolves
// its media chunk.
type AudioService struct {
	holder   *Holder
	embedder Embedder
	resolver *audio.Resolver
	signer   ChunkURLSigner
	topK     int
	logger   *zap.Logger
}

func NewAudioService(holder *Holder, embedder Embedder, resolver *audio.Resolver, topK int, logger *zap.Logger) *AudioService {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioService{
		holder:   holder,
		embedder: instrumentedEmbedder{embedder},
		resolver: resolver,
		topK:     topK,
		logger:   logger,
	}
}

// WithSigner attaches presigned download URLs to results.
func (s *AudioService) WithSigner(signer ChunkURLSigner) *AudioService {
	s.signer = signer
	return s
}

// Resolver returns the chunk resolver.
func (s *AudioService) Resolver() *audio.Resolver {
	return s.resolver
}

// Search embeds query, ranks the segment table and resolves the best match.
// Zero k uses the configured default.
func (s *AudioService) Search(ctx context.Context, query string, k int) (*AudioResult, error) {
	if k == 0 {
		k = s.topK
	}
	if k < 0 {
		return nil, domain.InvalidInput("k must be positive, got %d", k)
	}
	if !utf8.ValidString(query) || strings.TrimSpace(query) == "" {
		return nil, domain.InvalidInput("query must be non-empty UTF-8 text")
	}

	table := s.holder.Table()
	if table == nil {
		return nil, domain.ErrIndexNotLoaded
	}

	ctx, span := telemetry.StartSpan(ctx, "audio.search", telemetry.SpanAttributes{Operation: "audio_search", K: k})
	result, err := s.search(ctx, table, query, k)
	span.Finish(err)
	return result, err
}

func (s *AudioService) search(ctx context.Context, table *audio.Table, query string, k int) (*AudioResult, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if table.Dimension() > 0 && len(vec) != table.Dimension() {
		return nil, domain.EmbeddingFailure("query vector does not match audio table",
			fmt.Errorf("query has %d dimensions, table has %d", len(vec), table.Dimension()))
	}

	matches := audio.FindSimilar(vec, table, k)
	best, ok := audio.Best(matches)
	if !ok {
		return nil, domain.NewDomainError(domain.ErrCodeChunkNotFound, "no audio segment with a transcription embedding")
	}

	path, err := s.resolver.Resolve(best.Record)
	if err != nil {
		s.logger.Warn("best audio match has no media chunk",
			zap.String("original_file", best.Record.OriginalFile),
			zap.Int("chunk_id", best.Record.ChunkID),
			zap.Error(err))
		return nil, err
	}

	result := &AudioResult{Best: s.hit(ctx, best), Others: []AudioHit{}}
	result.Best.ChunkPath = path
	for _, m := range matches {
		if m.Index == best.Index {
			continue
		}
		result.Others = append(result.Others, s.hit(ctx, m))
	}
	return result, nil
}

func (s *AudioService) hit(ctx context.Context, m audio.Match) AudioHit {
	h := AudioHit{
		OriginalFile:  m.Record.OriginalFile,
		ChunkID:       m.Record.ChunkID,
		StartTime:     m.Record.StartTime,
		EndTime:       m.Record.EndTime,
		Transcription: m.Record.Transcription,
		Score:         m.Score,
		ChunkName:     m.Record.ChunkFileName(),
	}
	if s.signer != nil {
		url, err := s.signer.ChunkURL(ctx, h.ChunkName)
		if err != nil {
			s.logger.Warn("failed to presign audio chunk", zap.String("chunk", h.ChunkName), zap.Error(err))
		} else {
			h.URL = url
		}
	}
	return h
}

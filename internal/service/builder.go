package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/chunker"
	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
	"github.com/cloo-solutions/groundqa/internal/telemetry"
)

// BuildConfig controls how embedding requests are fanned out.
type BuildConfig struct {
	BatchSize   int
	Concurrency int
}

// BuildReport summarizes an index build.
type BuildReport struct {
	Files   int      `json:"files"`
	Skipped []string `json:"skipped,omitempty"`
	Chunks  int      `json:"chunks"`
}

// IndexBuilder turns source documents and transcripts into index artifacts.
type IndexBuilder struct {
	chunker  *chunker.Chunker
	embedder Embedder
	cfg      BuildConfig
	logger   *zap.Logger
}

func NewIndexBuilder(c *chunker.Chunker, embedder Embedder, cfg BuildConfig, logger *zap.Logger) *IndexBuilder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexBuilder{chunker: c, embedder: embedder, cfg: cfg, logger: logger}
}

// SourceFiles lists *.txt files directly under dir in lexical order.
func SourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// BuildText chunks every source file, embeds the chunks and returns the
// store. Chunk ids run across files in file order.
func (b *IndexBuilder) BuildText(ctx context.Context, files []string) (*index.Store, *BuildReport, error) {
	report := &BuildReport{Files: len(files)}

	var chunks []domain.Chunk
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		fileChunks, err := b.chunker.ChunkFile(len(chunks), filepath.Base(path), string(data))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to chunk %s: %w", path, err)
		}
		if len(fileChunks) == 0 {
			report.Skipped = append(report.Skipped, path)
			b.logger.Warn("source file has fewer sentences than the chunk window",
				zap.String("file", path),
				zap.Int("window", b.chunker.Window()))
			continue
		}
		chunks = append(chunks, fileChunks...)
	}
	report.Chunks = len(chunks)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	ctx, span := telemetry.StartSpan(ctx, "index.build_text", telemetry.SpanAttributes{Operation: "build_text", InputCount: len(texts)})
	vectors, err := b.embedAll(ctx, texts)
	span.Finish(err)
	if err != nil {
		return nil, nil, err
	}

	store, err := index.Build(chunks, vectors)
	if err != nil {
		return nil, nil, err
	}
	b.logger.Info("text index built",
		zap.Int("files", report.Files),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("chunks", store.Size()),
		zap.Int("dimension", store.Dimension()))
	return store, report, nil
}

// BuildAudio turns manifest rows into a segment table. Rows without a
// transcription keep a nil embedding.
func (b *IndexBuilder) BuildAudio(ctx context.Context, rows []audio.ManifestRow) (*audio.Table, error) {
	records := audio.Records(rows)

	var positions []int
	var texts []string
	for i, r := range records {
		if strings.TrimSpace(r.Transcription) == "" {
			continue
		}
		positions = append(positions, i)
		texts = append(texts, r.Transcription)
	}

	ctx, span := telemetry.StartSpan(ctx, "index.build_audio", telemetry.SpanAttributes{Operation: "build_audio", InputCount: len(texts)})
	vectors, err := b.embedAll(ctx, texts)
	span.Finish(err)
	if err != nil {
		return nil, err
	}
	for j, pos := range positions {
		records[pos].Embedding = vectors[j]
	}

	table, err := audio.NewTable(records)
	if err != nil {
		return nil, err
	}
	b.logger.Info("audio table built",
		zap.Int("rows", table.Len()),
		zap.Int("searchable", table.Searchable()))
	return table, nil
}

// embedAll embeds texts in batches, running up to Concurrency requests at a
// time. Each batch writes only its own slice of the result.
func (b *IndexBuilder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for start := 0; start < len(texts); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(texts))
		g.Go(func() error {
			vectors, err := b.embedder.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
			}
			if len(vectors) != end-start {
				return domain.EmbeddingFailure("wrong number of embeddings",
					fmt.Errorf("batch %d-%d returned %d vectors", start, end, len(vectors)))
			}
			copy(out[start:end], vectors)
			b.logger.Debug("embedded batch", zap.Int("start", start), zap.Int("end", end))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeSources concatenates the source files into one text, separated by a
// blank line.
func MergeSources(files []string) ([]byte, error) {
	var buf bytes.Buffer
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if i > 0 {
			buf.WriteString("\n\n")
		}
		buf.Write(bytes.TrimRight(data, "\r\n"))
	}
	if len(files) > 0 {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Package retrieval ranks indexed chunks against a query and decides whether
// the best matches are relevant enough to ground an answer.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
)

// DefaultThreshold is the similarity a top result must exceed to ground an answer.
const DefaultThreshold = 0.4

// Embedder maps a query to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// StoreSource returns the store to search. It is consulted on every call so a
// swapped store is visible to the next query.
type StoreSource interface {
	Store() *index.Store
}

// StoreFunc adapts a function to StoreSource.
type StoreFunc func() *index.Store

func (f StoreFunc) Store() *index.Store { return f() }

// Static returns a StoreSource that always yields s.
func Static(s *index.Store) StoreSource {
	return StoreFunc(func() *index.Store { return s })
}

// Result is one ranked chunk.
type Result struct {
	Index int
	Chunk domain.Chunk
	Score float64
}

// Outcome is the ranked top-k window and whether it grounds an answer.
type Outcome struct {
	Results  []Result
	Grounded bool
}

// TopScore returns the best score, or 0 when there are no results.
func (o *Outcome) TopScore() float64 {
	if len(o.Results) == 0 {
		return 0
	}
	return o.Results[0].Score
}

// Texts returns the chunk texts in rank order.
func (o *Outcome) Texts() []string {
	texts := make([]string, len(o.Results))
	for i, r := range o.Results {
		texts[i] = r.Chunk.Text
	}
	return texts
}

type Retriever struct {
	embedder Embedder
	source   StoreSource
}

func New(embedder Embedder, source StoreSource) *Retriever {
	return &Retriever{embedder: embedder, source: source}
}

// Retrieve embeds query, ranks every stored chunk by cosine similarity and
// returns the first k. The outcome is grounded when any returned score is
// strictly greater than threshold. An empty store returns no results without
// embedding the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, threshold float64) (*Outcome, error) {
	if k <= 0 {
		return nil, domain.InvalidInput("k must be positive, got %d", k)
	}
	if math.IsNaN(threshold) {
		return nil, domain.InvalidInput("threshold must be a number")
	}
	if !utf8.ValidString(query) || strings.TrimSpace(query) == "" {
		return nil, domain.InvalidInput("query must be non-empty UTF-8 text")
	}

	store := r.source.Store()
	if store.Size() == 0 {
		return &Outcome{Results: []Result{}, Grounded: false}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vec) != store.Dimension() {
		return nil, domain.EmbeddingFailure("query vector does not match index",
			fmt.Errorf("query has %d dimensions, index has %d", len(vec), store.Dimension()))
	}

	ranked := index.Rank(vec, store.Vectors(), k)
	results := make([]Result, len(ranked))
	for i, s := range ranked {
		results[i] = Result{Index: s.Index, Chunk: store.Chunk(s.Index), Score: s.Score}
	}

	return &Outcome{Results: results, Grounded: Grounded(results, threshold)}, nil
}

// Grounded reports whether any result scores strictly above threshold.
func Grounded(results []Result, threshold float64) bool {
	for _, r := range results {
		if r.Score > threshold {
			return true
		}
	}
	return false
}

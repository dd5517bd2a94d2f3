// Package index holds chunk texts and their embeddings as parallel,
// immutable sequences and persists them as flat artifacts.
package index

import (
	"fmt"
	"math"
	"slices"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

// Store is a read-only sequence of (chunk, embedding) pairs. Position i of
// chunks always corresponds to position i of vectors.
type Store struct {
	chunks  []domain.Chunk
	vectors [][]float32
	dim     int
}

// Build validates and copies chunks and embeddings into a new Store. No store
// is returned when counts or dimensions disagree.
func Build(chunks []domain.Chunk, embeddings [][]float32) (*Store, error) {
	if len(chunks) != len(embeddings) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCountMismatch,
			"chunk and embedding counts differ",
			fmt.Errorf("%d chunks, %d embeddings", len(chunks), len(embeddings)))
	}

	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}
	for i, e := range embeddings {
		if len(e) == 0 || len(e) != dim {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
				"embedding dimensions differ",
				fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(e), dim))
		}
	}

	s := &Store{
		chunks:  slices.Clone(chunks),
		vectors: make([][]float32, len(embeddings)),
		dim:     dim,
	}
	for i, e := range embeddings {
		s.vectors[i] = slices.Clone(e)
	}
	return s, nil
}

// Empty returns a store with no entries.
func Empty() *Store {
	return &Store{}
}

// Size returns the number of entries.
func (s *Store) Size() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

// Dimension returns the vector length shared by all entries, 0 when empty.
func (s *Store) Dimension() int {
	if s == nil {
		return 0
	}
	return s.dim
}

// Chunk returns the chunk at position i.
func (s *Store) Chunk(i int) domain.Chunk {
	return s.chunks[i]
}

// Vector returns the embedding at position i. Callers must not modify it.
func (s *Store) Vector(i int) []float32 {
	return s.vectors[i]
}

// Vectors returns all embeddings in positional order. Callers must not modify them.
func (s *Store) Vectors() [][]float32 {
	if s == nil {
		return nil
	}
	return s.vectors
}

// Sources returns the distinct source files in first-seen order.
func (s *Store) Sources() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range s.chunks {
		if _, ok := seen[c.SourceFile]; ok {
			continue
		}
		seen[c.SourceFile] = struct{}{}
		out = append(out, c.SourceFile)
	}
	return out
}

// Equal reports whether both stores hold the same chunks and bit-identical vectors.
func (s *Store) Equal(other *Store) bool {
	if s.Size() != other.Size() || s.Dimension() != other.Dimension() {
		return false
	}
	for i := range s.chunks {
		if s.chunks[i] != other.chunks[i] {
			return false
		}
		a, b := s.vectors[i], other.vectors[i]
		for j := range a {
			if math.Float32bits(a[j]) != math.Float32bits(b[j]) {
				return false
			}
		}
	}
	return true
}

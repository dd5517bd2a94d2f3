package index

import (
	"math"
	"sort"
)

// Scored pairs a position in a vector list with its similarity to a query.
type Scored struct {
	Index int
	Score float64
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|), accumulated in float64.
// Vectors of different length or with zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	// rounding can push parallel vectors just past 1
	return math.Max(-1, math.Min(1, score))
}

// Rank scores every vector against query and returns the best k, highest
// score first. Equal scores keep ascending index order. A nil vector is
// skipped. k larger than the candidate count returns all candidates.
func Rank(query []float32, vectors [][]float32, k int) []Scored {
	if k <= 0 {
		return []Scored{}
	}

	scored := make([]Scored, 0, len(vectors))
	for i, v := range vectors {
		if v == nil {
			continue
		}
		scored = append(scored, Scored{Index: i, Score: CosineSimilarity(query, v)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

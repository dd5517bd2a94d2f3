package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero query", []float32{0, 0}, []float32{1, 1}, 0},
		{"zero stored", []float32{1, 1}, []float32{0, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarity_Bounded(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	s := CosineSimilarity(v, v)
	assert.LessOrEqual(t, s, 1.0)
	assert.GreaterOrEqual(t, s, -1.0)
}

func TestCosineSimilarity_NonFinite(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{nan, nan}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{inf, 0}))
}

func TestRank_OrderAndTieBreak(t *testing.T) {
	vectors := [][]float32{
		{0, 1},   // 0: orthogonal
		{1, 0},   // 1: exact
		{2, 0},   // 2: exact, same score as 1
		{1, 1},   // 3: 0.707
		{-1, 0},  // 4: opposite
	}

	got := Rank([]float32{1, 0}, vectors, 10)

	indexes := make([]int, len(got))
	for i, s := range got {
		indexes[i] = s.Index
	}
	assert.Equal(t, []int{1, 2, 3, 0, 4}, indexes)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestRank_Truncates(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}

	assert.Len(t, Rank([]float32{1, 0}, vectors, 2), 2)
	assert.Len(t, Rank([]float32{1, 0}, vectors, 5), 3)
	assert.Empty(t, Rank([]float32{1, 0}, vectors, 0))
	assert.Empty(t, Rank([]float32{1, 0}, nil, 3))
}

func TestRank_SkipsNilVectors(t *testing.T) {
	vectors := [][]float32{nil, {1, 0}, nil}

	got := Rank([]float32{1, 0}, vectors, 5)
	assert.Equal(t, []Scored{{Index: 1, Score: 1}}, got)
}

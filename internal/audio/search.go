package audio

import (
	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
)

// Match is a segment ranked against a query.
type Match struct {
	Index  int
	Record domain.AudioSegmentRecord
	Score  float64
}

// FindSimilar ranks rows with an embedding by cosine similarity to query and
// returns at most k, best first. There is no relevance threshold.
func FindSimilar(query []float32, table *Table, k int) []Match {
	records := table.Records()
	vectors := make([][]float32, len(records))
	for i, r := range records {
		if r.HasEmbedding() {
			vectors[i] = r.Embedding
		}
	}

	ranked := index.Rank(query, vectors, k)
	matches := make([]Match, len(ranked))
	for i, s := range ranked {
		matches[i] = Match{Index: s.Index, Record: records[s.Index], Score: s.Score}
	}
	return matches
}

// Best returns the highest scoring match. On equal scores the lower row wins.
func Best(matches []Match) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Score > best.Score || (m.Score == best.Score && m.Index < best.Index) {
			best = m
		}
	}
	return best, true
}

package domain

import "fmt"

// Chunk is one sentence window of a source document. Its ID is the position
// in the ordered sequence produced at build time, so duplicate text is allowed.
type Chunk struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	SourceFile string `json:"source_file"`
}

// ValidateChunks checks that chunk ids are positional (0..n-1 in order).
func ValidateChunks(chunks []Chunk) error {
	for i, c := range chunks {
		if c.ID != i {
			return fmt.Errorf("chunk at position %d has id %d", i, c.ID)
		}
	}
	return nil
}

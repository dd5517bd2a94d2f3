// Package chunker splits source text into overlapping sentence windows.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

// DefaultWindow is the number of sentences per chunk.
const DefaultWindow = 3

// SentenceSplitter detects sentence boundaries.
type SentenceSplitter interface {
	Split(text string) []string
}

// Chunker produces one chunk per window of consecutive sentences.
type Chunker struct {
	splitter SentenceSplitter
	window   int
}

// New creates a Chunker. A nil splitter falls back to the regexp splitter.
func New(splitter SentenceSplitter, window int) (*Chunker, error) {
	if window < 1 {
		return nil, domain.InvalidInput("chunk window must be at least 1, got %d", window)
	}
	if splitter == nil {
		splitter = NewRegexpSplitter()
	}
	return &Chunker{splitter: splitter, window: window}, nil
}

// Window returns the configured number of sentences per chunk.
func (c *Chunker) Window() int {
	return c.window
}

// Chunk returns the space-joined windows [i, i+window) for every i in
// 0..len(sentences)-window. Text with fewer sentences than the window yields
// no chunks.
func (c *Chunker) Chunk(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, domain.InvalidInput("text is not valid UTF-8")
	}

	sentences := cleanSentences(c.splitter.Split(text))
	if len(sentences) < c.window {
		return []string{}, nil
	}

	chunks := make([]string, 0, len(sentences)-c.window+1)
	for i := 0; i+c.window <= len(sentences); i++ {
		chunks = append(chunks, strings.Join(sentences[i:i+c.window], " "))
	}
	return chunks, nil
}

// ChunkFile chunks text and assigns positional ids starting at id0.
func (c *Chunker) ChunkFile(id0 int, source, text string) ([]domain.Chunk, error) {
	if id0 < 0 {
		return nil, domain.InvalidInput("first chunk id cannot be negative, got %d", id0)
	}
	texts, err := c.Chunk(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{ID: id0 + i, Text: t, SourceFile: source}
	}
	return chunks, nil
}

func cleanSentences(raw []string) []string {
	out := raw[:0:0]
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

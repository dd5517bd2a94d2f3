package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AudioSegmentRecord is one non-silent segment of an audio file together with
// its transcription. A nil Embedding marks a row excluded from search.
type AudioSegmentRecord struct {
	ChunkID       int
	OriginalFile  string
	StartTime     float64
	EndTime       float64
	Transcription string
	Embedding     []float32
}

// HasEmbedding reports whether the record takes part in similarity search.
func (r AudioSegmentRecord) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// Duration returns the segment length in seconds.
func (r AudioSegmentRecord) Duration() float64 {
	return r.EndTime - r.StartTime
}

// ChunkFileName returns the media chunk name for the record:
// "<basename without extension>_chunk_<id>.wav".
func (r AudioSegmentRecord) ChunkFileName() string {
	base := filepath.Base(r.OriginalFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_chunk_%d.wav", base, r.ChunkID)
}

// ValidateAudioSegmentRecord validates a record read from a segment table.
func ValidateAudioSegmentRecord(r *AudioSegmentRecord) error {
	if r == nil {
		return fmt.Errorf("audio segment record cannot be nil")
	}
	if r.OriginalFile == "" {
		return fmt.Errorf("audio segment OriginalFile is required")
	}
	if r.ChunkID < 0 {
		return fmt.Errorf("audio segment ChunkID cannot be negative")
	}
	if r.StartTime < 0 {
		return fmt.Errorf("audio segment StartTime cannot be negative")
	}
	if r.EndTime < r.StartTime {
		return fmt.Errorf("audio segment EndTime %.3f is before StartTime %.3f", r.EndTime, r.StartTime)
	}
	return nil
}

package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
)

func writeStore(t *testing.T, dir string, texts ...string) *index.Store {
	t.Helper()
	chunks := make([]domain.Chunk, len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{ID: i, Text: text, SourceFile: "a.txt"}
		vectors[i] = hashVector(text)
	}
	s, err := index.Build(chunks, vectors)
	require.NoError(t, err)
	require.NoError(t, s.Save(dir))
	return s
}

func TestHolder_Load(t *testing.T) {
	dir := t.TempDir()
	saved := writeStore(t, dir, "one", "two")

	tablePath := filepath.Join(dir, "segments.csv")
	table, err := audio.NewTable([]domain.AudioSegmentRecord{
		{ChunkID: 0, OriginalFile: "talk.wav", EndTime: 1, Transcription: "hi", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)
	require.NoError(t, table.Save(tablePath))

	h := NewHolder(Artifacts{IndexDir: dir, AudioTable: tablePath}, zap.NewNop())
	assert.Nil(t, h.Store())
	assert.Nil(t, h.Table())

	require.NoError(t, h.Load())
	assert.True(t, saved.Equal(h.Store()))
	assert.Equal(t, 1, h.Table().Len())
	assert.Equal(t, []string{
		filepath.Join(dir, index.EmbeddingsFile),
		filepath.Join(dir, index.ChunksFile),
		tablePath,
	}, h.Artifacts().Paths())
}

func TestHolder_LoadFailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "one")

	h := NewHolder(Artifacts{IndexDir: dir}, nil)
	require.NoError(t, h.Load())
	before := h.Store()

	require.NoError(t, os.WriteFile(filepath.Join(dir, index.EmbeddingsFile), []byte("garbage"), 0o644))
	err := h.Load()

	assert.Error(t, err)
	assert.Same(t, before, h.Store())
}

func TestHolder_LoadMissing(t *testing.T) {
	h := NewHolder(Artifacts{IndexDir: filepath.Join(t.TempDir(), "absent")}, nil)

	err := h.Load()

	require.Error(t, err)
	assert.True(t, Missing(err))
	assert.Nil(t, h.Store())
	assert.False(t, Missing(errors.New("other")))
}

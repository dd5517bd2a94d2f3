package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/groundqa/internal/domain"
	"github.com/cloo-solutions/groundqa/internal/index"
	"github.com/cloo-solutions/groundqa/internal/service"
)

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load() error {
	args := m.Called()
	return args.Error(0)
}

func touch(t *testing.T, path string, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestReloadProcessor_NoChangeSkipsLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	touch(t, path, "one", time.Now().Add(-time.Hour))

	loader := new(MockLoader)
	p := NewReloadProcessor(loader, []string{path}, nil)

	require.NoError(t, p.ProcessJobs(context.Background()))
	loader.AssertNotCalled(t, "Load")
}

func TestReloadProcessor_ChangeTriggersLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	touch(t, path, "one", time.Now().Add(-time.Hour))

	loader := new(MockLoader)
	loader.On("Load").Return(nil).Once()
	p := NewReloadProcessor(loader, []string{path}, nil)

	touch(t, path, "two!", time.Now())
	require.NoError(t, p.ProcessJobs(context.Background()))
	require.NoError(t, p.ProcessJobs(context.Background()))

	loader.AssertNumberOfCalls(t, "Load", 1)
}

func TestReloadProcessor_MissingFileWaits(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.bin")
	absent := filepath.Join(dir, "b.json")
	touch(t, present, "one", time.Now().Add(-time.Hour))

	loader := new(MockLoader)
	p := NewReloadProcessor(loader, []string{present, absent}, nil)

	touch(t, present, "changed", time.Now())
	require.NoError(t, p.ProcessJobs(context.Background()))
	loader.AssertNotCalled(t, "Load")
}

func TestReloadProcessor_StopsRetryingAfterMaxRetries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	touch(t, path, "one", time.Now().Add(-time.Hour))

	loader := new(MockLoader)
	loader.On("Load").Return(assert.AnError)
	p := NewReloadProcessor(loader, []string{path}, nil)

	touch(t, path, "broken", time.Now())
	for i := 0; i < MaxRetries; i++ {
		assert.ErrorIs(t, p.ProcessJobs(context.Background()), assert.AnError)
	}
	assert.NoError(t, p.ProcessJobs(context.Background()))
	loader.AssertNumberOfCalls(t, "Load", MaxRetries)

	// a new change resets the retry budget
	touch(t, path, "broken again", time.Now().Add(time.Minute))
	assert.Error(t, p.ProcessJobs(context.Background()))
	loader.AssertNumberOfCalls(t, "Load", MaxRetries+1)
}

func TestReloadProcessor_CancelledContext(t *testing.T) {
	loader := new(MockLoader)
	p := NewReloadProcessor(loader, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.ProcessJobs(ctx), context.Canceled)
}

func TestReloadProcessor_SwapsHolderStore(t *testing.T) {
	dir := t.TempDir()
	first, err := index.Build(
		[]domain.Chunk{{ID: 0, Text: "a b c.", SourceFile: "one.txt"}},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)
	require.NoError(t, first.Save(dir))

	holder := service.NewHolder(service.Artifacts{IndexDir: dir}, nil)
	require.NoError(t, holder.Load())
	p := NewReloadProcessor(holder, holder.Artifacts().Paths(), nil)

	second, err := index.Build(
		[]domain.Chunk{
			{ID: 0, Text: "a b c.", SourceFile: "one.txt"},
			{ID: 1, Text: "d e f.", SourceFile: "two.txt"},
		},
		[][]float32{{1, 0}, {0, 1}},
	)
	require.NoError(t, err)
	require.NoError(t, second.Save(dir))
	later := time.Now().Add(time.Minute)
	for _, path := range holder.Artifacts().Paths() {
		require.NoError(t, os.Chtimes(path, later, later))
	}

	require.NoError(t, p.ProcessJobs(context.Background()))
	assert.Equal(t, 2, holder.Store().Size())

	// a corrupt vector file keeps the previous store
	vectors := filepath.Join(dir, index.EmbeddingsFile)
	touch(t, vectors, "garbage", later.Add(time.Minute))
	assert.Error(t, p.ProcessJobs(context.Background()))
	assert.True(t, holder.Store().Equal(second))
}

func TestReloadProcessor_ForcedReload(t *testing.T) {
	loader := new(MockLoader)
	loader.On("Load").Return(nil).Once()
	p := NewReloadProcessor(loader, nil, nil)

	require.NoError(t, p.Reload())
	loader.AssertExpectations(t)
}

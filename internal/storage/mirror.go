package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ObjectStore is the subset of S3Client used by Mirror.
type ObjectStore interface {
	PutFile(ctx context.Context, key, path, contentType string) error
	GetFile(ctx context.Context, key, path string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// Mirror copies index artifacts and media chunks between local disk and a
// bucket prefix. Artifacts live at <prefix>/<file name>, media chunks at
// <prefix>/chunks/<file name>.
type Mirror struct {
	store  ObjectStore
	prefix string
	logger *zap.Logger
}

func NewMirror(store ObjectStore, prefix string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{store: store, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// Key returns the object key for a local file name.
func (m *Mirror) Key(name string) string {
	return path.Join(m.prefix, name)
}

// ChunkKey returns the object key for a media chunk.
func (m *Mirror) ChunkKey(name string) string {
	return path.Join(m.prefix, "chunks", name)
}

// ChunkURL returns a presigned download URL for a media chunk.
func (m *Mirror) ChunkURL(ctx context.Context, name string) (string, error) {
	return m.store.GenerateDownloadURL(ctx, m.ChunkKey(name))
}

// Push uploads each file under its base name.
func (m *Mirror) Push(ctx context.Context, files []string) error {
	for _, f := range files {
		key := m.Key(filepath.Base(f))
		if err := m.store.PutFile(ctx, key, f, contentType(f)); err != nil {
			return err
		}
		m.logger.Info("artifact pushed", zap.String("file", f), zap.String("key", key))
	}
	return nil
}

// Pull downloads each file by its base name into its local path.
func (m *Mirror) Pull(ctx context.Context, files []string) error {
	for _, f := range files {
		key := m.Key(filepath.Base(f))
		if err := m.store.GetFile(ctx, key, f); err != nil {
			return err
		}
		m.logger.Info("artifact pulled", zap.String("key", key), zap.String("file", f))
	}
	return nil
}

// PushChunks uploads every .wav file directly under dir and returns how many
// were sent.
func (m *Mirror) PushChunks(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read chunk dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		if err := m.store.PutFile(ctx, m.ChunkKey(e.Name()), filepath.Join(dir, e.Name()), "audio/wav"); err != nil {
			return n, err
		}
		n++
	}
	m.logger.Info("media chunks pushed", zap.String("dir", dir), zap.Int("count", n))
	return n, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

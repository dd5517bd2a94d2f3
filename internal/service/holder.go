package service

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cloo-solutions/groundqa/internal/audio"
	"github.com/cloo-solutions/groundqa/internal/index"
	"github.com/cloo-solutions/groundqa/internal/metrics"
)

// Artifacts names the on-disk files a Holder loads. An empty AudioTable
// disables audio search.
type Artifacts struct {
	IndexDir   string
	AudioTable string
}

// Paths returns every file whose change should trigger a reload.
func (a Artifacts) Paths() []string {
	paths := index.ArtifactPaths(a.IndexDir)
	if a.AudioTable != "" {
		paths = append(paths, a.AudioTable)
	}
	return paths
}

// Holder keeps the currently served store and segment table. Both are
// immutable, so readers take a snapshot pointer and never lock.
type Holder struct {
	store     atomic.Pointer[index.Store]
	table     atomic.Pointer[audio.Table]
	artifacts Artifacts
	logger    *zap.Logger
}

func NewHolder(artifacts Artifacts, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Holder{artifacts: artifacts, logger: logger}
}

// Artifacts returns the configured artifact locations.
func (h *Holder) Artifacts() Artifacts {
	return h.artifacts
}

// Store returns the current text index, nil before the first successful load.
func (h *Holder) Store() *index.Store {
	return h.store.Load()
}

// Table returns the current audio segment table, nil when not loaded.
func (h *Holder) Table() *audio.Table {
	return h.table.Load()
}

// SetStore swaps in s.
func (h *Holder) SetStore(s *index.Store) {
	h.store.Store(s)
	metrics.IndexEntries.WithLabelValues("text").Set(float64(s.Size()))
}

// SetTable swaps in t.
func (h *Holder) SetTable(t *audio.Table) {
	h.table.Store(t)
	metrics.IndexEntries.WithLabelValues("audio").Set(float64(t.Len()))
}

// Load reads every configured artifact and swaps in the ones that loaded.
// A failed artifact keeps its previous instance and is reported in the
// returned error.
func (h *Holder) Load() error {
	var errs []error

	store, err := index.Load(h.artifacts.IndexDir)
	if err != nil {
		errs = append(errs, fmt.Errorf("text index %s: %w", h.artifacts.IndexDir, err))
	} else {
		h.SetStore(store)
		h.logger.Info("text index loaded",
			zap.String("dir", h.artifacts.IndexDir),
			zap.Int("entries", store.Size()),
			zap.Int("dimension", store.Dimension()))
	}

	if h.artifacts.AudioTable != "" {
		table, err := audio.LoadTable(h.artifacts.AudioTable)
		if err != nil {
			errs = append(errs, fmt.Errorf("audio table %s: %w", h.artifacts.AudioTable, err))
		} else {
			h.SetTable(table)
			h.logger.Info("audio table loaded",
				zap.String("path", h.artifacts.AudioTable),
				zap.Int("rows", table.Len()),
				zap.Int("searchable", table.Searchable()))
		}
	}

	err = errors.Join(errs...)
	metrics.ReloadsTotal.WithLabelValues(metrics.Status(err)).Inc()
	return err
}

// Missing reports whether err only says that artifacts do not exist yet.
func Missing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

package jobs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxRetries is the number of consecutive failed loads of the same
	// artifact state before the processor waits for the files to change again
	MaxRetries = 3
)

// ArtifactLoader loads artifacts from disk and swaps them in.
type ArtifactLoader interface {
	Load() error
}

type fileState struct {
	modTime time.Time
	size    int64
	missing bool
}

// ReloadProcessor reloads artifacts when any watched file changes. It
// implements JobProcessor so the polling Worker can drive it.
type ReloadProcessor struct {
	loader ArtifactLoader
	paths  []string
	logger *zap.Logger

	mu       sync.Mutex
	loaded   map[string]fileState
	failed   map[string]fileState
	failures int
}

// NewReloadProcessor watches paths. The current state of the files is taken
// as already loaded.
func NewReloadProcessor(loader ArtifactLoader, paths []string, logger *zap.Logger) *ReloadProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &ReloadProcessor{loader: loader, paths: paths, logger: logger}
	p.loaded = p.snapshot()
	return p
}

// ProcessJobs implements the JobProcessor interface
func (p *ReloadProcessor) ProcessJobs(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.snapshot()
	if sameState(current, p.loaded) {
		return nil
	}
	if sameState(current, p.failed) && p.failures >= MaxRetries {
		return nil
	}
	for _, s := range current {
		if s.missing {
			// a writer may be between renames
			return nil
		}
	}

	p.logger.Info("artifacts changed, reloading", zap.Strings("paths", p.paths))
	if err := p.loader.Load(); err != nil {
		if !sameState(current, p.failed) {
			p.failures = 0
		}
		p.failed = current
		p.failures++
		if p.failures >= MaxRetries {
			p.logger.Error("artifact reload exceeded max retries, waiting for files to change",
				zap.Int("max_retries", MaxRetries), zap.Error(err))
		}
		return fmt.Errorf("failed to reload artifacts: %w", err)
	}

	p.loaded = current
	p.failed = nil
	p.failures = 0
	p.logger.Info("artifacts reloaded")
	return nil
}

// Reload forces a load regardless of file state, for SIGHUP and the admin
// endpoint.
func (p *ReloadProcessor) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.snapshot()
	if err := p.loader.Load(); err != nil {
		return err
	}
	p.loaded = current
	p.failed = nil
	p.failures = 0
	return nil
}

func (p *ReloadProcessor) String() string { return "artifact-reload" }

func (p *ReloadProcessor) snapshot() map[string]fileState {
	state := make(map[string]fileState, len(p.paths))
	for _, path := range p.paths {
		info, err := os.Stat(path)
		if err != nil {
			state[path] = fileState{missing: true}
			continue
		}
		state[path] = fileState{modTime: info.ModTime(), size: info.Size()}
	}
	return state
}

func sameState(a, b map[string]fileState) bool {
	if len(a) != len(b) {
		return false
	}
	for path, s := range a {
		o, ok := b[path]
		if !ok || o.missing != s.missing || o.size != s.size || !o.modTime.Equal(s.modTime) {
			return false
		}
	}
	return true
}

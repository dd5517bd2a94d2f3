// Package audio maps retrieved transcript segments back to playable media
// chunks and stores the segment table.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

// ChunkExt is the extension of every media chunk.
const ChunkExt = ".wav"

// Resolver locates media chunk files under a root directory.
type Resolver struct {
	root string
}

func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Root returns the chunk root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns where the chunk for record is expected, without checking it
// exists. The path is in cleaned form, so a root of "./chunks" yields
// "chunks/talk1_chunk_4.wav".
func (r *Resolver) Path(record domain.AudioSegmentRecord) string {
	return filepath.Join(r.root, record.ChunkFileName())
}

// Resolve returns the path of the media chunk for record. A missing file, or
// a directory in its place, is ErrChunkNotFound.
func (r *Resolver) Resolve(record domain.AudioSegmentRecord) (string, error) {
	path := r.Path(record)
	if err := regularFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// ResolveName returns the path of a chunk requested by file name. Only plain
// base names ending in .wav are accepted.
func (r *Resolver) ResolveName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		name == "." || name == ".." || !strings.EqualFold(filepath.Ext(name), ChunkExt) {
		return "", domain.InvalidInput("invalid chunk name %q", name)
	}
	path := filepath.Join(r.root, name)
	if err := regularFile(path); err != nil {
		return "", err
	}
	return path, nil
}

func regularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.NewDomainErrorWithCause(domain.ErrCodeChunkNotFound,
			fmt.Sprintf("audio chunk not found at %s", path), err)
	}
	return nil
}

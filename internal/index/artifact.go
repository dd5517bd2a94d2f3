package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

// Artifact file names inside an index directory.
const (
	EmbeddingsFile = "embeddings.bin"
	ChunksFile     = "chunks.json"
)

const (
	vectorMagic   = "GQAV"
	vectorVersion = uint32(1)
	headerSize    = 16
)

var (
	ErrBadMagic   = errors.New("embeddings artifact has wrong magic")
	ErrBadVersion = errors.New("embeddings artifact has unsupported version")
	ErrTruncated  = errors.New("embeddings artifact size does not match header")
)

// ArtifactPaths returns the two artifact paths for dir.
func ArtifactPaths(dir string) []string {
	return []string{filepath.Join(dir, EmbeddingsFile), filepath.Join(dir, ChunksFile)}
}

// Save writes embeddings.bin and chunks.json into dir. Each file is written
// to a temporary name first and renamed into place.
func (s *Store) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, EmbeddingsFile), s.writeVectors); err != nil {
		return fmt.Errorf("failed to write %s: %w", EmbeddingsFile, err)
	}
	if err := writeAtomic(filepath.Join(dir, ChunksFile), s.writeChunks); err != nil {
		return fmt.Errorf("failed to write %s: %w", ChunksFile, err)
	}
	return nil
}

// Load reads the artifacts written by Save.
func Load(dir string) (*Store, error) {
	vectors, err := readVectors(filepath.Join(dir, EmbeddingsFile))
	if err != nil {
		return nil, err
	}
	chunks, err := readChunks(filepath.Join(dir, ChunksFile))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCountMismatch,
			"index artifacts disagree",
			fmt.Errorf("%d vectors, %d chunks", len(vectors), len(chunks)))
	}
	if len(vectors) == 0 {
		return Empty(), nil
	}
	return Build(chunks, vectors)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := write(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) writeVectors(w io.Writer) error {
	header := make([]byte, headerSize)
	copy(header, vectorMagic)
	binary.LittleEndian.PutUint32(header[4:], vectorVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(s.Size()))
	binary.LittleEndian.PutUint32(header[12:], uint32(s.Dimension()))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4*s.Dimension())
	for _, v := range s.vectors {
		for j, f := range v {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(f))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeChunks(w io.Writer) error {
	chunks := s.chunks
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(chunks)
}

func readVectors(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", EmbeddingsFile, err)
	}
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if string(data[:4]) != vectorMagic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != vectorVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	count := int(binary.LittleEndian.Uint32(data[8:]))
	dim := int(binary.LittleEndian.Uint32(data[12:]))
	if int64(len(data)-headerSize) != int64(count)*int64(dim)*4 {
		return nil, ErrTruncated
	}

	body := data[headerSize:]
	vectors := make([][]float32, count)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			off := 4 * (i*dim + j)
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		}
		vectors[i] = v
	}
	return vectors, nil
}

func readChunks(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ChunksFile, err)
	}
	defer f.Close()

	var chunks []domain.Chunk
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", ChunksFile, err)
	}
	return chunks, nil
}

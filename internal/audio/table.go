package audio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

var fixedColumns = []string{"chunk_id", "original_file", "start_time", "end_time", "transcription"}

// ErrBadHeader is returned when a segment table does not start with the expected columns.
var ErrBadHeader = errors.New("segment table has unexpected header")

// Table is an immutable, ordered list of audio segment records. Records
// without an embedding stay in the table but never match a search.
type Table struct {
	records []domain.AudioSegmentRecord
	dim     int
}

// NewTable validates records and checks that every embedding has the same length.
func NewTable(records []domain.AudioSegmentRecord) (*Table, error) {
	dim := 0
	for i := range records {
		if err := domain.ValidateAudioSegmentRecord(&records[i]); err != nil {
			return nil, domain.InvalidInput("row %d: %v", i, err)
		}
		n := len(records[i].Embedding)
		if n == 0 {
			continue
		}
		if dim == 0 {
			dim = n
		} else if n != dim {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
				"embedding dimensions differ",
				fmt.Errorf("row %d has %d dimensions, expected %d", i, n, dim))
		}
	}
	return &Table{records: records, dim: dim}, nil
}

// Len returns the number of rows, including rows without an embedding.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Dimension returns the embedding length, 0 when no row has one.
func (t *Table) Dimension() int {
	if t == nil {
		return 0
	}
	return t.dim
}

// Record returns row i.
func (t *Table) Record(i int) domain.AudioSegmentRecord {
	return t.records[i]
}

// Searchable returns the number of rows with an embedding.
func (t *Table) Searchable() int {
	n := 0
	for _, r := range t.Records() {
		if r.HasEmbedding() {
			n++
		}
	}
	return n
}

// Records returns all rows. Callers must not modify them.
func (t *Table) Records() []domain.AudioSegmentRecord {
	if t == nil {
		return nil
	}
	return t.records
}

// LoadTable reads a segment table from a CSV file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open segment table: %w", err)
	}
	defer f.Close()
	return ReadTable(bufio.NewReader(f))
}

// ReadTable parses the CSV layout written by Write. An empty or unparsable
// embedding cell gives the row a nil embedding.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read segment table header: %w", err)
	}
	dim, err := checkHeader(header)
	if err != nil {
		return nil, err
	}

	var records []domain.AudioSegmentRecord
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read segment table row %d: %w", row, err)
		}
		rec, err := parseRow(fields, dim)
		if err != nil {
			return nil, domain.InvalidInput("segment table row %d: %v", row, err)
		}
		records = append(records, rec)
	}
	return NewTable(records)
}

func checkHeader(header []string) (int, error) {
	if len(header) < len(fixedColumns) {
		return 0, ErrBadHeader
	}
	for i, name := range fixedColumns {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != name {
			return 0, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, header[i], name)
		}
	}
	dim := len(header) - len(fixedColumns)
	for j := 0; j < dim; j++ {
		if want := "embedding_" + strconv.Itoa(j); header[len(fixedColumns)+j] != want {
			return 0, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, len(fixedColumns)+j, header[len(fixedColumns)+j], want)
		}
	}
	return dim, nil
}

func parseRow(fields []string, dim int) (domain.AudioSegmentRecord, error) {
	var rec domain.AudioSegmentRecord
	if len(fields) < len(fixedColumns) {
		return rec, fmt.Errorf("expected at least %d fields, got %d", len(fixedColumns), len(fields))
	}

	id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return rec, fmt.Errorf("chunk_id: %w", err)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return rec, fmt.Errorf("start_time: %w", err)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return rec, fmt.Errorf("end_time: %w", err)
	}

	rec = domain.AudioSegmentRecord{
		ChunkID:       id,
		OriginalFile:  fields[1],
		StartTime:     start,
		EndTime:       end,
		Transcription: fields[4],
		Embedding:     parseEmbedding(fields[len(fixedColumns):], dim),
	}
	return rec, nil
}

func parseEmbedding(cells []string, dim int) []float32 {
	if dim == 0 || len(cells) != dim {
		return nil
	}
	v := make([]float32, dim)
	for j, c := range cells {
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 32)
		// NaN and Inf are null markers too
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		v[j] = float32(f)
	}
	return v
}

// Save writes the table to path through a temporary file and a rename.
func (t *Table) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create table dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := t.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Write emits the CSV header and one row per record. Floats use the shortest
// representation that parses back to the same float32.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, fixedColumns...)
	for j := 0; j < t.dim; j++ {
		header = append(header, "embedding_"+strconv.Itoa(j))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range t.records {
		row[0] = strconv.Itoa(r.ChunkID)
		row[1] = r.OriginalFile
		row[2] = strconv.FormatFloat(r.StartTime, 'g', -1, 64)
		row[3] = strconv.FormatFloat(r.EndTime, 'g', -1, 64)
		row[4] = r.Transcription
		for j := 0; j < t.dim; j++ {
			cell := ""
			if r.HasEmbedding() {
				cell = strconv.FormatFloat(float64(r.Embedding[j]), 'g', -1, 32)
			}
			row[len(fixedColumns)+j] = cell
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

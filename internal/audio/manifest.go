package audio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cloo-solutions/groundqa/internal/domain"
)

// ManifestRow is one line of the segmentation manifest: a non-silent span of
// an audio file and, once transcribed, its text.
type ManifestRow struct {
	AudioFile     string
	StartTime     float64
	EndTime       float64
	SegmentFile   string
	Transcription string
}

var manifestColumns = []string{"audio_file", "start_time", "end_time", "segment_file"}

// ReadManifest parses audio_file,start_time,end_time,segment_file[,transcription].
// Columns are located by header name, so their order does not matter.
func ReadManifest(r io.Reader) ([]ManifestRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range manifestColumns {
		if _, ok := cols[name]; !ok {
			return nil, domain.InvalidInput("manifest is missing column %q", name)
		}
	}
	textCol, hasText := cols["transcription"]

	var rows []ManifestRow
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest row %d: %w", line, err)
		}
		get := func(name string) string {
			i := cols[name]
			if i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		start, err := strconv.ParseFloat(get("start_time"), 64)
		if err != nil {
			return nil, domain.InvalidInput("manifest row %d: start_time: %v", line, err)
		}
		end, err := strconv.ParseFloat(get("end_time"), 64)
		if err != nil {
			return nil, domain.InvalidInput("manifest row %d: end_time: %v", line, err)
		}
		row := ManifestRow{
			AudioFile:   get("audio_file"),
			StartTime:   start,
			EndTime:     end,
			SegmentFile: get("segment_file"),
		}
		if hasText && textCol < len(fields) {
			row.Transcription = strings.TrimSpace(fields[textCol])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Records converts manifest rows to segment records without embeddings.
// ChunkID is the row's position among the rows of the same audio file.
func Records(rows []ManifestRow) []domain.AudioSegmentRecord {
	seen := make(map[string]int)
	records := make([]domain.AudioSegmentRecord, len(rows))
	for i, row := range rows {
		id := seen[row.AudioFile]
		seen[row.AudioFile] = id + 1
		records[i] = domain.AudioSegmentRecord{
			ChunkID:       id,
			OriginalFile:  row.AudioFile,
			StartTime:     row.StartTime,
			EndTime:       row.EndTime,
			Transcription: row.Transcription,
		}
	}
	return records
}

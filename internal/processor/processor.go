// Package processor converts CSV files of locations and coordinates through
// a geocoder, writing one output row per input row.
package processor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNotCSV is returned when an input path does not have a .csv extension.
var ErrNotCSV = errors.New("the path must be in .csv format")

// Summary reports how a batch went.
type Summary struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

func validateCSVPath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("%w: %s", ErrNotCSV, path)
	}
	return nil
}

// openInput opens a CSV file and returns a reader positioned after the header.
func openInput(path string) (*os.File, *csv.Reader, []string, error) {
	if err := validateCSVPath(path); err != nil {
		return nil, nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		_ = f.Close()
		return nil, nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimPrefix(strings.TrimSpace(header[i]), "\ufeff")
	}

	return f, r, header, nil
}

// rowWriter writes CSV rows and flushes after each so partial runs keep
// their output.
type rowWriter struct {
	f *os.File
	w *csv.Writer
}

func createOutput(path string, header []string) (*rowWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	rw := &rowWriter{f: f, w: csv.NewWriter(f)}
	if err := rw.write(header); err != nil {
		_ = f.Close()
		return nil, err
	}

	return rw, nil
}

func (rw *rowWriter) write(rec []string) error {
	if err := rw.w.Write(rec); err != nil {
		return err
	}
	rw.w.Flush()
	return rw.w.Error()
}

func (rw *rowWriter) close() {
	if err := rw.f.Close(); err != nil {
		log.Error().Err(err).Str("path", rw.f.Name()).Msg("Failed to close file")
	}
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

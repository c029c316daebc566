// Package ukgeog resolves place names to the English and Welsh statistical
// geographies (LSOA, MSOA and Local Authority) their boundaries intersect.
package ukgeog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/config"

	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingColumn is returned when a lookup file lacks a configured column.
	ErrMissingColumn = errors.New("lookup column missing")
	// ErrMissingProperty is returned when a boundary feature lacks its code.
	ErrMissingProperty = errors.New("boundary feature has no code")
	// ErrEmptyDataset is returned when no boundaries were loaded.
	ErrEmptyDataset = errors.New("no LSOA boundaries loaded")
)

// LookupRow is one row of the LSOA to MSOA to LA lookup.
type LookupRow struct {
	LSOAName string
	MSOACode string
	MSOAName string
	LACode   string
	LAName   string
}

// Lookup maps LSOA codes to their parent geographies.
type Lookup map[string]LookupRow

// LoadLookup reads the lookup CSV at path.
func LoadLookup(path string, cols config.Columns) (Lookup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	lookup, err := ReadLookup(f, cols)
	if err != nil {
		return nil, fmt.Errorf("read lookup %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("lsoa", len(lookup)).Msg("Lookup table loaded")
	return lookup, nil
}

// ReadLookup parses a lookup CSV using only the configured columns. The
// ONS lookup is keyed by output area so LSOAs repeat; the first row wins.
func ReadLookup(r io.Reader, cols config.Columns) (Lookup, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		// excel exports lead with a byte order mark
		index[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}

	names := []string{cols.LSOACode, cols.LSOAName, cols.MSOACode, cols.MSOAName, cols.LACode, cols.LAName}
	pos := make([]int, len(names))
	for i, name := range names {
		p, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		pos[i] = p
	}

	lookup := make(Lookup)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(i int) string {
			if pos[i] < len(rec) {
				return strings.TrimSpace(rec[pos[i]])
			}
			return ""
		}

		code := field(0)
		if code == "" {
			continue
		}
		if _, seen := lookup[code]; seen {
			continue
		}

		lookup[code] = LookupRow{
			LSOAName: field(1),
			MSOACode: field(2),
			MSOAName: field(3),
			LACode:   field(4),
			LAName:   field(5),
		}
	}

	return lookup, nil
}

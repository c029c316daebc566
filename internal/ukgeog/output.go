package ukgeog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/geo"
)

// ErrInvalidOutput is returned for unknown output geographies.
var ErrInvalidOutput = errors.New("invalid output geography")

// Output selects the geography returned by a lookup.
type Output string

// Supported outputs.
const (
	OutputLSOA     Output = "lsoa"
	OutputMSOA     Output = "msoa"
	OutputLA       Output = "la"
	OutputOverview Output = "overview"
	OutputRaw      Output = "raw"
)

// Outputs lists every output in display order.
var Outputs = []Output{OutputLSOA, OutputMSOA, OutputLA, OutputOverview, OutputRaw}

// ParseOutput parses an output name; empty means overview.
func ParseOutput(s string) (Output, error) {
	if s == "" {
		return OutputOverview, nil
	}
	o := Output(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Outputs {
		if o == known {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutput, s)
}

// Row is a single lookup result. Fields not covered by the output are empty.
type Row struct {
	InputLocation string           `json:"input_location,omitempty"`
	LSOACode      string           `json:"lsoa_code,omitempty"`
	LSOAName      string           `json:"lsoa_name,omitempty"`
	MSOACode      string           `json:"msoa_code,omitempty"`
	MSOAName      string           `json:"msoa_name,omitempty"`
	LACode        string           `json:"la_code,omitempty"`
	LAName        string           `json:"la_name,omitempty"`
	Geohash       string           `json:"geohash,omitempty"`
	Geometry      geo.MultiPolygon `json:"-"`

	// GeoJSON carries Geometry in raw output.
	GeoJSON *geo.GeoJSONGeometry `json:"geometry,omitempty"`
}

// Header returns the CSV header for an output.
func Header(o Output, cols config.Columns) []string {
	var h []string
	switch o {
	case OutputLSOA:
		h = []string{cols.LSOACode, cols.LSOAName}
	case OutputMSOA:
		h = []string{cols.MSOACode, cols.MSOAName}
	case OutputLA:
		h = []string{cols.LACode, cols.LAName}
	case OutputOverview:
		h = []string{cols.LSOACode, cols.LSOAName, cols.MSOACode, cols.MSOAName, cols.LACode, cols.LAName}
	case OutputRaw:
		h = []string{cols.LSOACode, cols.LSOAName, cols.MSOACode, cols.MSOAName, cols.LACode, cols.LAName, "geohash", "geometry"}
	}
	return append([]string{"input_location"}, h...)
}

// Record returns the CSV record matching Header.
func (r Row) Record(o Output) []string {
	var rec []string
	switch o {
	case OutputLSOA:
		rec = []string{r.LSOACode, r.LSOAName}
	case OutputMSOA:
		rec = []string{r.MSOACode, r.MSOAName}
	case OutputLA:
		rec = []string{r.LACode, r.LAName}
	case OutputOverview:
		rec = []string{r.LSOACode, r.LSOAName, r.MSOACode, r.MSOAName, r.LACode, r.LAName}
	case OutputRaw:
		rec = []string{r.LSOACode, r.LSOAName, r.MSOACode, r.MSOAName, r.LACode, r.LAName, r.Geohash, geo.WKTMultiPolygon(r.Geometry)}
	}
	return append([]string{r.InputLocation}, rec...)
}

// Project reduces join rows to the requested output. Apart from raw, rows
// are deduplicated per input location keeping first-seen order.
func Project(rows []Row, o Output) []Row {
	if o == OutputRaw {
		out := make([]Row, len(rows))
		for i, r := range rows {
			g := geo.NewMultiPolygonFeature(r.Geometry, nil).Geometry
			r.GeoJSON = &g
			out[i] = r
		}
		return out
	}

	out := make([]Row, 0, len(rows))
	seen := make(map[rowKey]struct{}, len(rows))

	for _, r := range rows {
		p := Row{InputLocation: r.InputLocation}
		switch o {
		case OutputLSOA:
			p.LSOACode, p.LSOAName = r.LSOACode, r.LSOAName
		case OutputMSOA:
			p.MSOACode, p.MSOAName = r.MSOACode, r.MSOAName
		case OutputLA:
			p.LACode, p.LAName = r.LACode, r.LAName
		case OutputOverview:
			p.LSOACode, p.LSOAName = r.LSOACode, r.LSOAName
			p.MSOACode, p.MSOAName = r.MSOACode, r.MSOAName
			p.LACode, p.LAName = r.LACode, r.LAName
		}

		k := p.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}

	return out
}

type rowKey struct {
	location, lsoaCode, lsoaName, msoaCode, msoaName, laCode, laName string
}

func (r Row) key() rowKey {
	return rowKey{r.InputLocation, r.LSOACode, r.LSOAName, r.MSOACode, r.MSOAName, r.LACode, r.LAName}
}

func sortByCode(idx []int, areas []Area) {
	sort.Slice(idx, func(i, j int) bool {
		return areas[idx[i]].LSOACode < areas[idx[j]].LSOACode
	})
}

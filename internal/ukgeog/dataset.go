package ukgeog

import (
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/geo"
	"github.com/woozymasta/geotoolbox/internal/osm"

	"github.com/gogama/flatgeobuf/packedrtree"
	"github.com/rs/zerolog/log"
)

const indexNodeSize = 16

// Area is one LSOA boundary joined with its lookup row.
type Area struct {
	Geometry geo.MultiPolygon
	LSOACode string
	LookupRow
}

// Dataset holds LSOA boundaries behind a packed Hilbert R-tree.
type Dataset struct {
	index *packedrtree.PackedRTree
	areas []Area
}

// LoadBoundaries streams the LSOA GeoJSON at path, keeping codeProperty and
// the geometry of each feature and left-joining lookup onto it.
func LoadBoundaries(path, codeProperty string, lookup Lookup) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	log.Info().Str("path", path).Msg("Reading LSOA boundary file, this will take a while")

	ds, err := ReadBoundaries(f, codeProperty, lookup)
	if err != nil {
		return nil, fmt.Errorf("read boundaries %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("lsoa", ds.Len()).Msg("LSOA boundaries loaded")
	return ds, nil
}

// ReadBoundaries is LoadBoundaries for an open stream.
func ReadBoundaries(r io.Reader, codeProperty string, lookup Lookup) (*Dataset, error) {
	var areas []Area
	unmatched, skipped := 0, 0

	err := geo.DecodeFeatures(r, func(f geo.GeoJSONFeature) error {
		code, _ := f.Properties[codeProperty].(string)
		if code == "" {
			return fmt.Errorf("%w: property %s", ErrMissingProperty, codeProperty)
		}

		if f.Geometry.Type == "" {
			skipped++
			log.Warn().Str("lsoa", code).Msg("Skipping LSOA without geometry")
			return nil
		}

		mp, err := f.Geometry.MultiPolygon()
		if err != nil {
			return fmt.Errorf("lsoa %s: %w", code, err)
		}
		if len(mp) == 0 {
			skipped++
			log.Warn().Str("lsoa", code).Msg("Skipping LSOA with empty geometry")
			return nil
		}

		row, ok := lookup[code]
		if !ok {
			unmatched++
		}

		areas = append(areas, Area{Geometry: mp, LSOACode: code, LookupRow: row})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if unmatched > 0 {
		log.Warn().Int("count", unmatched).Msg("LSOA boundaries without lookup row")
	}
	if skipped > 0 {
		log.Warn().Int("count", skipped).Msg("LSOA boundaries skipped")
	}

	return NewDataset(areas)
}

// NewDataset indexes areas for spatial joins.
func NewDataset(areas []Area) (*Dataset, error) {
	if len(areas) == 0 {
		return nil, ErrEmptyDataset
	}

	refs := make([]packedrtree.Ref, len(areas))
	bounds := packedrtree.EmptyBox
	for i := range areas {
		b := areas[i].Geometry.Bounds()
		refs[i] = packedrtree.Ref{
			Box:    packedrtree.Box{XMin: b.MinLon, YMin: b.MinLat, XMax: b.MaxLon, YMax: b.MaxLat},
			Offset: int64(i),
		}
		bounds.Expand(&refs[i].Box)
	}
	packedrtree.HilbertSort(refs, bounds)

	index, err := packedrtree.New(refs, indexNodeSize)
	if err != nil {
		return nil, fmt.Errorf("build spatial index: %w", err)
	}

	return &Dataset{index: index, areas: areas}, nil
}

// Len returns the number of LSOAs in the dataset.
func (d *Dataset) Len() int { return len(d.areas) }

// Join is an inner spatial join of the dataset against hull polygons using
// the intersects predicate. It returns one row per intersecting
// (LSOA, polygon) pair, ordered by polygon then LSOA code.
func (d *Dataset) Join(location string, polygons []osm.BoundaryPolygon) []Row {
	var rows []Row

	for _, p := range polygons {
		if len(p.Hull) == 0 {
			continue
		}
		hb := p.Hull.Bounds()
		results := d.index.Search(packedrtree.Box{XMin: hb.MinLon, YMin: hb.MinLat, XMax: hb.MaxLon, YMax: hb.MaxLat})

		matched := make([]int, 0, len(results))
		for _, res := range results {
			i := int(res.Offset)
			if geo.Intersects(d.areas[i].Geometry, p.Hull) {
				matched = append(matched, i)
			}
		}
		sortByCode(matched, d.areas)

		for _, i := range matched {
			a := d.areas[i]
			rows = append(rows, Row{
				InputLocation: location,
				LSOACode:      a.LSOACode,
				LSOAName:      a.LSOAName,
				MSOACode:      a.MSOACode,
				MSOAName:      a.MSOAName,
				LACode:        a.LACode,
				LAName:        a.LAName,
				Geohash:       p.Geohash,
				Geometry:      a.Geometry,
			})
		}
	}

	return rows
}

// Open loads the lookup and boundary files named in cfg.
func Open(cfg config.UKGeography) (*Dataset, error) {
	if cfg.BoundariesPath == "" || cfg.LookupPath == "" {
		return nil, fmt.Errorf("%w: boundaries and lookup paths are required", ErrEmptyDataset)
	}

	lookup, err := LoadLookup(cfg.LookupPath, cfg.Columns)
	if err != nil {
		return nil, err
	}

	return LoadBoundaries(cfg.BoundariesPath, cfg.Columns.LSOACode, lookup)
}

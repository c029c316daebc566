package ukgeog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/geo"
	"github.com/woozymasta/geotoolbox/internal/osm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Four LSOAs in a 2x2 grid of 0.1 degree cells south-west of (0, 51.6).
// E01/E02 sit in MSOA M1 of LA L1, E03/E04 in MSOA M2 of LA L2.
func cell(lon, lat float64) geo.Polygon {
	return geo.Polygon{{
		{Lon: lon, Lat: lat}, {Lon: lon + 0.1, Lat: lat}, {Lon: lon + 0.1, Lat: lat + 0.1},
		{Lon: lon, Lat: lat + 0.1}, {Lon: lon, Lat: lat},
	}}
}

var cells = map[string]geo.Polygon{
	"E01": cell(-0.2, 51.4),
	"E02": cell(-0.1, 51.4),
	"E03": cell(-0.2, 51.5),
	"E04": cell(-0.1, 51.5),
}

const lookupCSV = "\ufeffOA21CD,LSOA21CD,LSOA21NM,MSOA21CD,MSOA21NM,LAD22CD,LAD22NM\n" +
	"O1,E01,Lsoa 1,M1,Msoa 1,L1,Borough 1\n" +
	"O2,E01,Lsoa 1,M1,Msoa 1,L1,Borough 1\n" +
	"O3,E02,Lsoa 2,M1,Msoa 1,L1,Borough 1\n" +
	"O4,E03,Lsoa 3,M2,Msoa 2,L2,Borough 2\n" +
	"O5,E04,Lsoa 4,M2,Msoa 2,L2,Borough 2\n"

func writeFixtures(t *testing.T) config.UKGeography {
	t.Helper()
	dir := t.TempDir()

	fc := geo.NewFeatureCollection(len(cells))
	for _, code := range []string{"E01", "E02", "E03", "E04"} {
		fc.Features = append(fc.Features, geo.NewPolygonFeature(cells[code], map[string]any{
			"LSOA21CD": code,
			"GlobalID": "ignored",
		}))
	}
	data, err := json.Marshal(fc)
	require.NoError(t, err)

	cfg := config.Default().UKGeography
	cfg.BoundariesPath = filepath.Join(dir, "lsoa.geojson")
	cfg.LookupPath = filepath.Join(dir, "lookup.csv")
	require.NoError(t, os.WriteFile(cfg.BoundariesPath, data, 0o644))
	require.NoError(t, os.WriteFile(cfg.LookupPath, []byte(lookupCSV), 0o644))

	return cfg
}

func openDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Open(writeFixtures(t))
	require.NoError(t, err)
	return ds
}

func TestReadLookup(t *testing.T) {
	lookup, err := ReadLookup(strings.NewReader(lookupCSV), config.Default().UKGeography.Columns)
	require.NoError(t, err)

	assert.Len(t, lookup, 4)
	assert.Equal(t, LookupRow{LSOAName: "Lsoa 1", MSOACode: "M1", MSOAName: "Msoa 1", LACode: "L1", LAName: "Borough 1"}, lookup["E01"])
}

func TestReadLookupMissingColumn(t *testing.T) {
	cols := config.Default().UKGeography.Columns
	cols.LACode = "LAD23CD"

	_, err := ReadLookup(strings.NewReader(lookupCSV), cols)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadBoundariesMissingCode(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
	_, err := ReadBoundaries(strings.NewReader(doc), "LSOA21CD", Lookup{})
	assert.ErrorIs(t, err, ErrMissingProperty)
}

func TestReadBoundariesSkipsNullGeometry(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"LSOA21CD":"E00"},"geometry":null},
		{"type":"Feature","properties":{"LSOA21CD":"E01"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}
	]}`
	ds, err := ReadBoundaries(strings.NewReader(doc), "LSOA21CD", Lookup{})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestNewDatasetEmpty(t *testing.T) {
	_, err := NewDataset(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestJoinIntersects(t *testing.T) {
	ds := openDataset(t)
	require.Equal(t, 4, ds.Len())

	// hull inside E01 only
	inner := osm.BoundaryPolygon{Geohash: "gcp", Hull: geo.ConvexHull([]geo.Point{
		{Lon: -0.18, Lat: 51.42}, {Lon: -0.15, Lat: 51.42}, {Lon: -0.16, Lat: 51.45},
	})}
	rows := ds.Join("Inner", []osm.BoundaryPolygon{inner})
	require.Len(t, rows, 1)
	assert.Equal(t, "E01", rows[0].LSOACode)
	assert.Equal(t, "Borough 1", rows[0].LAName)
	assert.Equal(t, "gcp", rows[0].Geohash)
	assert.Equal(t, "Inner", rows[0].InputLocation)

	// hull spanning the bottom row crosses E01 and E02
	wide := osm.BoundaryPolygon{Geohash: "gcp", Hull: geo.ConvexHull([]geo.Point{
		{Lon: -0.15, Lat: 51.42}, {Lon: -0.05, Lat: 51.42}, {Lon: -0.1, Lat: 51.45},
	})}
	rows = ds.Join("Wide", []osm.BoundaryPolygon{wide})
	codes := []string{}
	for _, r := range rows {
		codes = append(codes, r.LSOACode)
	}
	assert.Equal(t, []string{"E01", "E02"}, codes)

	// far away
	far := osm.BoundaryPolygon{Geohash: "dpw", Hull: geo.Ring{{Lon: -81, Lat: 43}}}
	assert.Empty(t, ds.Join("Far", []osm.BoundaryPolygon{far}))
}

func TestProjectOutputs(t *testing.T) {
	ds := openDataset(t)
	everything := osm.BoundaryPolygon{Geohash: "gcp", Hull: geo.ConvexHull([]geo.Point{
		{Lon: -0.25, Lat: 51.35}, {Lon: 0.05, Lat: 51.35}, {Lon: 0.05, Lat: 51.65}, {Lon: -0.25, Lat: 51.65},
	})}
	rows := ds.Join("London", []osm.BoundaryPolygon{everything})
	require.Len(t, rows, 4)

	assert.Len(t, Project(rows, OutputLSOA), 4)
	assert.Len(t, Project(rows, OutputOverview), 4)
	assert.Len(t, Project(rows, OutputRaw), 4)

	msoa := Project(rows, OutputMSOA)
	require.Len(t, msoa, 2)
	assert.Equal(t, Row{InputLocation: "London", MSOACode: "M1", MSOAName: "Msoa 1"}, msoa[0])

	la := Project(rows, OutputLA)
	require.Len(t, la, 2)
	assert.Equal(t, []string{"London", "L2", "Borough 2"}, la[1].Record(OutputLA))

	raw := Project(rows, OutputRaw)[0].Record(OutputRaw)
	assert.Equal(t, "gcp", raw[7])
	assert.True(t, strings.HasPrefix(raw[8], "MULTIPOLYGON ((("))
	assert.Len(t, Header(OutputRaw, config.Default().UKGeography.Columns), len(raw))
}

func TestProjectRawKeepsEveryPart(t *testing.T) {
	island := geo.MultiPolygon{cell(-0.2, 51.4), cell(0.3, 51.4)}
	ds, err := NewDataset([]Area{{LSOACode: "W01", Geometry: island}})
	require.NoError(t, err)

	hull := geo.ConvexHull([]geo.Point{{Lon: -0.25, Lat: 51.35}, {Lon: -0.05, Lat: 51.35}, {Lon: -0.15, Lat: 51.55}})
	rows := Project(ds.Join("Anglesey", []osm.BoundaryPolygon{{Geohash: "gcp", Hull: hull}}), OutputRaw)
	require.Len(t, rows, 1)

	rec := rows[0].Record(OutputRaw)
	assert.Equal(t, geo.WKTMultiPolygon(island), rec[8])
	assert.Contains(t, rec[8], "0.3 51.4")

	require.NotNil(t, rows[0].GeoJSON)
	got, err := rows[0].GeoJSON.MultiPolygon()
	require.NoError(t, err)
	assert.Equal(t, island, got)

	data, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"geometry":{"type":"MultiPolygon"`)
}

func TestParseOutput(t *testing.T) {
	o, err := ParseOutput("")
	require.NoError(t, err)
	assert.Equal(t, OutputOverview, o)

	o, err = ParseOutput(" LSOA ")
	require.NoError(t, err)
	assert.Equal(t, OutputLSOA, o)

	_, err = ParseOutput("ward")
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

type placeQuerier map[string][]osm.Element

func (p placeQuerier) Query(_ context.Context, ql string) ([]osm.Element, error) {
	for name, elements := range p {
		if strings.Contains(ql, fmt.Sprintf(`["name"="%s"]`, name)) {
			return elements, nil
		}
	}
	return nil, nil
}

func nodes(points ...geo.Point) []osm.Element {
	out := []osm.Element{{Type: "relation", ID: 1, Tags: map[string]string{"type": "boundary"}}}
	for i, p := range points {
		out = append(out, osm.Element{Type: "node", ID: int64(i + 10), Lat: p.Lat, Lon: p.Lon})
	}
	return out
}

func TestResolver(t *testing.T) {
	q := placeQuerier{
		"South": nodes(geo.Point{Lon: -0.18, Lat: 51.42}, geo.Point{Lon: -0.02, Lat: 51.42}, geo.Point{Lon: -0.1, Lat: 51.45}),
		"North": nodes(geo.Point{Lon: -0.18, Lat: 51.52}, geo.Point{Lon: -0.15, Lat: 51.52}, geo.Point{Lon: -0.16, Lat: 51.55}),
	}
	r := NewResolver(q, openDataset(t), Options{Precision: 3, Concurrency: 2})

	rows, err := r.ConvertStringToUKGeog(context.Background(), "South", OutputLA)
	require.NoError(t, err)
	assert.Equal(t, []Row{{InputLocation: "South", LACode: "L1", LAName: "Borough 1"}}, rows)

	_, err = r.ConvertStringToUKGeog(context.Background(), "Kentish Town", OutputLA)
	assert.ErrorIs(t, err, osm.ErrNoBoundary)

	res, err := r.ConvertListToUKGeog(context.Background(), []string{"North", "Kentish Town", "South", ""}, OutputLSOA)
	require.NoError(t, err)

	got := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		got = append(got, row.InputLocation+":"+row.LSOACode)
	}
	assert.Equal(t, []string{"North:E03", "South:E01", "South:E02"}, got)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "Kentish Town", res.Failures[0].Location)
}

func TestResolverBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(cancelledQuerier{}, openDataset(t), Options{})
	_, err := r.ConvertListToUKGeog(ctx, []string{"London"}, OutputLSOA)
	assert.ErrorIs(t, err, context.Canceled)
}

type cancelledQuerier struct{}

func (cancelledQuerier) Query(ctx context.Context, _ string) ([]osm.Element, error) {
	return nil, ctx.Err()
}

package osm

import (
	"context"
	"fmt"
	"sort"

	"github.com/woozymasta/geotoolbox/internal/geo"

	"github.com/rs/zerolog/log"
)

// Node is an untagged node belonging to a boundary way.
type Node struct {
	Type    string  `json:"type"`
	Geohash string  `json:"geohash"`
	ID      int64   `json:"id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// BoundaryPolygon is the convex hull of all boundary nodes in one geohash cell.
type BoundaryPolygon struct {
	Geohash string   `json:"geohash"`
	Type    string   `json:"type"`
	Hull    geo.Ring `json:"hull"`
	Count   int      `json:"count"`
}

// Boundary is the result of a boundary lookup.
type Boundary struct {
	Country  string            `json:"country"`
	Location string            `json:"location"`
	Nodes    []Node            `json:"nodes"`
	Polygons []BoundaryPolygon `json:"polygons"`
}

// Querier runs Overpass QL.
type Querier interface {
	Query(ctx context.Context, ql string) ([]Element, error)
}

// ConvertStringToBoundary looks up the boundary relations called location
// within country. Places sharing a name end up in separate polygons since
// nodes are grouped by geohash cell before taking each cell's convex hull.
func ConvertStringToBoundary(ctx context.Context, q Querier, country, location string, precision int) (*Boundary, error) {
	elements, err := q.Query(ctx, BoundaryQuery(country, location))
	if err != nil {
		return nil, fmt.Errorf("query boundary %q in %q: %w", location, country, err)
	}

	b := BuildBoundary(elements, precision)
	b.Country, b.Location = country, location

	if len(b.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %q in %q", ErrNoBoundary, location, country)
	}

	log.Debug().
		Str("country", country).
		Str("location", location).
		Int("nodes", len(b.Nodes)).
		Int("polygons", len(b.Polygons)).
		Msg("Boundary resolved")

	return b, nil
}

// BuildBoundary groups untagged nodes by geohash and hulls each group.
// Polygons are ordered by geohash.
func BuildBoundary(elements []Element, precision int) *Boundary {
	if precision <= 0 {
		precision = geo.DefaultGeohashPrecision
	}

	b := &Boundary{Nodes: []Node{}, Polygons: []BoundaryPolygon{}}
	groups := make(map[string][]geo.Point)

	for _, e := range elements {
		if len(e.Tags) > 0 || e.Type != "node" {
			continue
		}

		hash := geo.EncodeGeohash(e.Lat, e.Lon, precision)
		b.Nodes = append(b.Nodes, Node{
			Type:    e.Type,
			Geohash: hash,
			ID:      e.ID,
			Lat:     e.Lat,
			Lon:     e.Lon,
		})
		groups[hash] = append(groups[hash], geo.Point{Lon: e.Lon, Lat: e.Lat})
	}

	hashes := make([]string, 0, len(groups))
	for h := range groups {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	for _, h := range hashes {
		pts := groups[h]
		b.Polygons = append(b.Polygons, BoundaryPolygon{
			Geohash: h,
			Type:    "node",
			Hull:    geo.ConvexHull(pts),
			Count:   len(pts),
		})
	}

	return b
}

// FeatureCollection returns the hull polygons as GeoJSON.
func (b *Boundary) FeatureCollection() geo.GeoJSONFeatureCollection {
	fc := geo.NewFeatureCollection(len(b.Polygons))
	for _, p := range b.Polygons {
		fc.Features = append(fc.Features, geo.NewRingFeature(p.Hull, map[string]any{
			"geohash":  p.Geohash,
			"type":     p.Type,
			"id":       p.Count,
			"location": b.Location,
		}))
	}
	return fc
}

// NodeCollection returns the raw boundary nodes as GeoJSON points.
func (b *Boundary) NodeCollection() geo.GeoJSONFeatureCollection {
	fc := geo.NewFeatureCollection(len(b.Nodes))
	for _, n := range b.Nodes {
		fc.Features = append(fc.Features, geo.NewPointFeature(geo.Point{Lon: n.Lon, Lat: n.Lat}, map[string]any{
			"id":      n.ID,
			"type":    n.Type,
			"geohash": n.Geohash,
		}))
	}
	return fc
}

// Hulls returns every polygon hull.
func (b *Boundary) Hulls() []geo.Ring {
	out := make([]geo.Ring, 0, len(b.Polygons))
	for _, p := range b.Polygons {
		out = append(out, p.Hull)
	}
	return out
}

package geo

import "math"

// Point is a WGS84 coordinate.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Ring is a sequence of points. Closed rings repeat the first point last.
type Ring []Point

// Polygon is an outer ring followed by optional holes.
type Polygon []Ring

// MultiPolygon is a set of polygons.
type MultiPolygon []Polygon

// Box is an axis-aligned bounding box in lon/lat degrees.
type Box struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// EmptyBox contains nothing and is the identity for Expand.
var EmptyBox = Box{
	MinLon: math.Inf(1),
	MinLat: math.Inf(1),
	MaxLon: math.Inf(-1),
	MaxLat: math.Inf(-1),
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.MinLon > b.MaxLon || b.MinLat > b.MaxLat
}

// Expand grows the box to include o.
func (b *Box) Expand(o Box) {
	b.MinLon = math.Min(b.MinLon, o.MinLon)
	b.MinLat = math.Min(b.MinLat, o.MinLat)
	b.MaxLon = math.Max(b.MaxLon, o.MaxLon)
	b.MaxLat = math.Max(b.MaxLat, o.MaxLat)
}

// ExpandPoint grows the box to include p.
func (b *Box) ExpandPoint(p Point) {
	b.Expand(Box{MinLon: p.Lon, MinLat: p.Lat, MaxLon: p.Lon, MaxLat: p.Lat})
}

// Intersects reports whether the boxes share at least one point.
func (b Box) Intersects(o Box) bool {
	return b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon &&
		b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}

// Center returns the middle of the box.
func (b Box) Center() Point {
	return Point{Lon: (b.MinLon + b.MaxLon) / 2, Lat: (b.MinLat + b.MaxLat) / 2}
}

// Bounds returns the bounding box of the ring.
func (r Ring) Bounds() Box {
	b := EmptyBox
	for _, p := range r {
		b.ExpandPoint(p)
	}
	return b
}

// Bounds returns the bounding box of the outer ring.
func (poly Polygon) Bounds() Box {
	if len(poly) == 0 {
		return EmptyBox
	}
	return poly[0].Bounds()
}

// Bounds returns the bounding box of all polygons.
func (mp MultiPolygon) Bounds() Box {
	b := EmptyBox
	for _, poly := range mp {
		b.Expand(poly.Bounds())
	}
	return b
}

// Package geo handles geographic data structures, geometry predicates and
// coordinate conversions.
package geo

import (
	"encoding/json"
	"fmt"
)

// GeoJSON geometry and object type names.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"
	TypePoint             = "Point"
	TypeLineString        = "LineString"
	TypePolygon           = "Polygon"
	TypeMultiPolygon      = "MultiPolygon"
)

// GeoJSONFeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	Properties map[string]any  `json:"properties"`
	Type       string          `json:"type"`
	Geometry   GeoJSONGeometry `json:"geometry"`
}

// GeoJSONGeometry represents the geometry of a feature. Coordinates are kept
// raw and decoded on demand since their shape depends on Type.
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewFeatureCollection returns an empty, non-nil feature collection.
func NewFeatureCollection(capacity int) GeoJSONFeatureCollection {
	return GeoJSONFeatureCollection{
		Type:     TypeFeatureCollection,
		Features: make([]GeoJSONFeature, 0, capacity),
	}
}

// NewPointFeature builds a Point feature.
func NewPointFeature(p Point, props map[string]any) GeoJSONFeature {
	coords, _ := json.Marshal([]float64{p.Lon, p.Lat})
	return GeoJSONFeature{
		Type:       TypeFeature,
		Properties: props,
		Geometry:   GeoJSONGeometry{Type: TypePoint, Coordinates: coords},
	}
}

// NewRingFeature builds a feature from a hull ring. Rings of three or more
// points become a Polygon, two points a LineString and one point a Point.
func NewRingFeature(r Ring, props map[string]any) GeoJSONFeature {
	switch len(r) {
	case 0:
		return GeoJSONFeature{Type: TypeFeature, Properties: props}
	case 1:
		return NewPointFeature(r[0], props)
	case 2:
		coords, _ := json.Marshal(r.coordinates())
		return GeoJSONFeature{
			Type:       TypeFeature,
			Properties: props,
			Geometry:   GeoJSONGeometry{Type: TypeLineString, Coordinates: coords},
		}
	}

	return NewPolygonFeature(Polygon{r}, props)
}

// NewPolygonFeature builds a Polygon feature.
func NewPolygonFeature(poly Polygon, props map[string]any) GeoJSONFeature {
	coords, _ := json.Marshal(poly.coordinates())
	return GeoJSONFeature{
		Type:       TypeFeature,
		Properties: props,
		Geometry:   GeoJSONGeometry{Type: TypePolygon, Coordinates: coords},
	}
}

// NewMultiPolygonFeature builds a MultiPolygon feature.
func NewMultiPolygonFeature(mp MultiPolygon, props map[string]any) GeoJSONFeature {
	out := make([][][][]float64, 0, len(mp))
	for _, poly := range mp {
		out = append(out, poly.coordinates())
	}
	coords, _ := json.Marshal(out)
	return GeoJSONFeature{
		Type:       TypeFeature,
		Properties: props,
		Geometry:   GeoJSONGeometry{Type: TypeMultiPolygon, Coordinates: coords},
	}
}

// Point decodes a Point geometry.
func (g GeoJSONGeometry) Point() (Point, error) {
	if g.Type != TypePoint {
		return Point{}, fmt.Errorf("%w: %q is not a Point", ErrGeometryType, g.Type)
	}

	var c []float64
	if err := json.Unmarshal(g.Coordinates, &c); err != nil {
		return Point{}, fmt.Errorf("decode point: %w", err)
	}
	if len(c) < 2 {
		return Point{}, fmt.Errorf("%w: point needs two coordinates", ErrInvalidGeometry)
	}

	return Point{Lon: c[0], Lat: c[1]}, nil
}

// MultiPolygon decodes Polygon and MultiPolygon geometries into a MultiPolygon.
func (g GeoJSONGeometry) MultiPolygon() (MultiPolygon, error) {
	switch g.Type {
	case TypePolygon:
		var c [][][]float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return nil, fmt.Errorf("decode polygon: %w", err)
		}
		poly, err := polygonFromCoordinates(c)
		if err != nil {
			return nil, err
		}
		return MultiPolygon{poly}, nil

	case TypeMultiPolygon:
		var c [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return nil, fmt.Errorf("decode multipolygon: %w", err)
		}
		mp := make(MultiPolygon, 0, len(c))
		for _, pc := range c {
			poly, err := polygonFromCoordinates(pc)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	}

	return nil, fmt.Errorf("%w: %q is not polygonal", ErrGeometryType, g.Type)
}

func polygonFromCoordinates(c [][][]float64) (Polygon, error) {
	poly := make(Polygon, 0, len(c))
	for _, rc := range c {
		ring := make(Ring, 0, len(rc))
		for _, pc := range rc {
			if len(pc) < 2 {
				return nil, fmt.Errorf("%w: position needs two coordinates", ErrInvalidGeometry)
			}
			ring = append(ring, Point{Lon: pc[0], Lat: pc[1]})
		}
		poly = append(poly, ring)
	}

	return poly, nil
}

func (r Ring) coordinates() [][]float64 {
	out := make([][]float64, 0, len(r))
	for _, p := range r {
		out = append(out, []float64{p.Lon, p.Lat})
	}
	return out
}

func (poly Polygon) coordinates() [][][]float64 {
	out := make([][][]float64, 0, len(poly))
	for _, r := range poly {
		out = append(out, r.coordinates())
	}
	return out
}

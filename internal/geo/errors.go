package geo

import "errors"

var (
	// ErrGeometryType is returned when a geometry has an unexpected type.
	ErrGeometryType = errors.New("unexpected geometry type")
	// ErrInvalidGeometry is returned for malformed coordinates.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrInvalidGeohash is returned for hashes containing non-base32 characters.
	ErrInvalidGeohash = errors.New("invalid geohash")
	// ErrUnsupportedCRS is returned for collections not in WGS84.
	ErrUnsupportedCRS = errors.New("unsupported coordinate reference system")
	// ErrNotFeatureCollection is returned when a stream has no features array.
	ErrNotFeatureCollection = errors.New("not a GeoJSON FeatureCollection")
)

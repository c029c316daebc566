package server

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/woozymasta/geotoolbox/internal/assets"
	"github.com/woozymasta/geotoolbox/internal/config"
	"github.com/woozymasta/geotoolbox/internal/nominatim"
	"github.com/woozymasta/geotoolbox/internal/osm"
	"github.com/woozymasta/geotoolbox/internal/ukgeog"

	"github.com/rs/zerolog/log"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Overpass  osm.Querier
	Geocoder  nominatim.Geocoder
	Resolver  *ukgeog.Resolver // nil when no LSOA dataset is configured
	IndexHTML []byte
	IndexETag string
}

// contentETag returns a strong ETag for b.
func contentETag(b []byte) string {
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// NewServerContext wires the handler dependencies and builds the index page.
// A nil dataset disables the UK geography endpoints.
func NewServerContext(cfg *config.Config, overpass osm.Querier, geocoder nominatim.Geocoder, dataset *ukgeog.Dataset) (*ServerContext, error) {
	index, err := assets.BuildIndex("geotoolbox", config.Version)
	if err != nil {
		return nil, err
	}

	s := &ServerContext{
		Config:    cfg,
		Overpass:  overpass,
		Geocoder:  geocoder,
		IndexHTML: index,
		IndexETag: contentETag(index),
	}

	if dataset != nil {
		s.Resolver = ukgeog.NewResolver(overpass, dataset, ukgeog.Options{
			Country:     cfg.UKGeography.Country,
			Precision:   cfg.GeohashPrecision,
			Concurrency: cfg.UKGeography.Concurrency,
		})
	}

	log.Info().
		Bool("uk_geography", s.Resolver != nil).
		Int("index_bytes", len(index)).
		Msg("Server context initialized successfully")

	return s, nil
}

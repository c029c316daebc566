package main

import (
	"encoding/json"

	"github.com/woozymasta/geotoolbox/internal/osm"

	"github.com/rs/zerolog/log"
)

type boundaryCommand struct {
	Country  string `long:"country"  description:"Area searched for the boundary" default:"United Kingdom"`
	Location string `long:"location" description:"Boundary name" required:"true"`
	Nodes    bool   `long:"nodes"    description:"Output the raw boundary nodes instead of hulls"`
	Output   string `short:"o" long:"out" description:"Output GeoJSON path. Writes to stdout if empty"`
}

func (c *boundaryCommand) Execute([]string) error {
	ctx, cancel, cfg, tb, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	b, err := osm.ConvertStringToBoundary(ctx, tb.Overpass, c.Country, c.Location, cfg.GeohashPrecision)
	if err != nil {
		return err
	}

	fc := b.FeatureCollection()
	if c.Nodes {
		fc = b.NodeCollection()
	}

	w, err := createOutput(c.Output)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return err
	}

	log.Info().
		Str("location", c.Location).
		Int("nodes", len(b.Nodes)).
		Int("polygons", len(b.Polygons)).
		Msg("Boundary written")

	return nil
}

package main

import (
	"github.com/woozymasta/geotoolbox/internal/osm"
	"github.com/woozymasta/geotoolbox/internal/render"
	"github.com/woozymasta/geotoolbox/internal/ukgeog"

	"github.com/rs/zerolog/log"
)

type previewCommand struct {
	Country  string  `long:"country"  description:"Area searched for the boundary" default:"United Kingdom"`
	Location string  `long:"location" description:"Boundary name" required:"true"`
	Areas    bool    `long:"areas"    description:"Overlay intersecting LSOAs from the configured dataset"`
	Size     int     `short:"s" long:"size"    description:"Image size in pixels; config value if zero"`
	Quality  float32 `short:"q" long:"quality" description:"WebP quality; config value if zero, lossless if both zero"`
	Output   string  `short:"o" long:"out"     description:"Output WebP path" required:"true"`
}

func (c *previewCommand) Execute([]string) error {
	ctx, cancel, cfg, tb, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	b, err := osm.ConvertStringToBoundary(ctx, tb.Overpass, c.Country, c.Location, cfg.GeohashPrecision)
	if err != nil {
		return err
	}

	var layers []render.Layer
	if c.Areas {
		ds, err := ukgeog.Open(cfg.UKGeography)
		if err != nil {
			return err
		}
		area := render.AreaStyle
		area.Polygons = areaPolygons(ds.Join(c.Location, b.Polygons))
		layers = append(layers, area)
	}

	boundary := render.BoundaryStyle
	boundary.Polygons = render.HullPolygons(b.Hulls())
	layers = append(layers, boundary)

	size := c.Size
	if size <= 0 {
		size = cfg.Preview.Size
	}
	quality := c.Quality
	if quality <= 0 {
		quality = cfg.Preview.Quality
	}

	w, err := createOutput(c.Output)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := render.Preview(w, layers, render.Options{Size: size, Padding: size / 32, Quality: quality}); err != nil {
		return err
	}

	log.Info().
		Str("location", c.Location).
		Str("out", c.Output).
		Int("size", size).
		Int("layers", len(layers)).
		Msg("Preview written")

	return nil
}

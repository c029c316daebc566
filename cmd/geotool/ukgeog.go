package main

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/geo"
	"github.com/woozymasta/geotoolbox/internal/ukgeog"

	"github.com/rs/zerolog/log"
)

type ukGeographyCommand struct {
	Locations  []string `short:"l" long:"location" description:"Location to resolve; repeat for a batch"`
	InputFile  string   `short:"i" long:"in"       description:"CSV with a LOCATIONS column to resolve as a batch"`
	OutputType string   `short:"t" long:"output"   description:"Geography returned" choice:"lsoa" choice:"msoa" choice:"la" choice:"overview" choice:"raw" default:"overview"`
	Output     string   `short:"o" long:"out"      description:"Output CSV path. Writes to stdout if empty"`
}

func (c *ukGeographyCommand) Execute([]string) error {
	out, err := ukgeog.ParseOutput(c.OutputType)
	if err != nil {
		return err
	}

	locations := c.Locations
	if c.InputFile != "" {
		more, err := readLocations(c.InputFile)
		if err != nil {
			return err
		}
		locations = append(locations, more...)
	}
	if len(locations) == 0 {
		return errNoLocations
	}

	ctx, cancel, cfg, tb, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	ds, err := ukgeog.Open(cfg.UKGeography)
	if err != nil {
		return err
	}

	resolver := ukgeog.NewResolver(tb.Overpass, ds, ukgeog.Options{
		Country:     cfg.UKGeography.Country,
		Precision:   cfg.GeohashPrecision,
		Concurrency: cfg.UKGeography.Concurrency,
	})

	var rows []ukgeog.Row
	if len(locations) == 1 {
		rows, err = resolver.ConvertStringToUKGeog(ctx, locations[0], out)
		if err != nil {
			return err
		}
	} else {
		res, err := resolver.ConvertListToUKGeog(ctx, locations, out)
		if err != nil {
			return err
		}
		rows = res.Rows
		for _, f := range res.Failures {
			log.Warn().Str("location", f.Location).Str("error", f.Error).Msg("Location skipped")
		}
	}

	w, err := createOutput(c.Output)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	cw := csv.NewWriter(w)
	if err := cw.Write(ukgeog.Header(out, cfg.UKGeography.Columns)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record(out)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	log.Info().
		Int("locations", len(locations)).
		Int("rows", len(rows)).
		Str("output", string(out)).
		Msg("UK geography written")

	return nil
}

// readLocations returns the LOCATIONS column of a CSV file.
func readLocations(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	col := -1
	for i, h := range records[0] {
		if strings.TrimPrefix(h, "\ufeff") == "LOCATIONS" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errNoLocationsColumn
	}

	locations := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if col < len(rec) && rec[col] != "" {
			locations = append(locations, rec[col])
		}
	}

	return locations, nil
}

// areaPolygons returns the distinct LSOA geometries of raw rows.
func areaPolygons(rows []ukgeog.Row) []geo.MultiPolygon {
	seen := make(map[string]struct{}, len(rows))
	var out []geo.MultiPolygon
	for _, r := range rows {
		if _, dup := seen[r.LSOACode]; dup || len(r.Geometry) == 0 {
			continue
		}
		seen[r.LSOACode] = struct{}{}
		out = append(out, r.Geometry)
	}
	return out
}

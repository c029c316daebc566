package processor

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/geo"
	"github.com/woozymasta/geotoolbox/internal/nominatim"

	"github.com/rs/zerolog/log"
)

// GeocodeHeader is the output header of ConvertStringToCoordinates.
var GeocodeHeader = []string{"location_name", "long", "lat", "wkt", "address_exact"}

// GeocodeRecord is one output row of ConvertStringToCoordinates.
type GeocodeRecord struct {
	LocationName string
	Long         string
	Lat          string
	WKT          string
	AddressExact string
}

func (r GeocodeRecord) strings() []string {
	return []string{r.LocationName, r.Long, r.Lat, r.WKT, r.AddressExact}
}

// GeocodeOne resolves a single location. On failure the coordinates stay
// empty and AddressExact carries the error text.
func GeocodeOne(ctx context.Context, g nominatim.Geocoder, location, suffix string) (GeocodeRecord, error) {
	rec := GeocodeRecord{LocationName: location}

	query := location
	if s := strings.TrimSpace(suffix); s != "" {
		query = location + ", " + strings.TrimLeft(s, ", ")
	}

	p, err := g.Geocode(ctx, query)
	if err != nil {
		rec.AddressExact = err.Error()
		return rec, err
	}

	rec.Long = strconv.FormatFloat(p.Lon, 'f', -1, 64)
	rec.Lat = strconv.FormatFloat(p.Lat, 'f', -1, 64)
	rec.WKT = geo.WKTPoint(geo.Point{Lon: p.Lon, Lat: p.Lat})
	rec.AddressExact = p.Address

	return rec, nil
}

// ConvertStringToCoordinates geocodes every location in the first column of
// the input CSV (header LOCATIONS, values with commas quoted) and writes
// location_name,long,lat,wkt,address_exact rows to the output CSV. suffix
// is appended to every query, e.g. "United Kingdom".
func ConvertStringToCoordinates(ctx context.Context, g nominatim.Geocoder, inPath, outPath, suffix string) (Summary, error) {
	var sum Summary

	in, r, header, err := openInput(inPath)
	if err != nil {
		return sum, err
	}
	defer func() { _ = in.Close() }()

	col := columnIndex(header, "LOCATIONS")
	if col < 0 {
		log.Warn().Strs("header", header).Msg("No LOCATIONS column, using the first column")
		col = 0
	}

	out, err := createOutput(outPath, GeocodeHeader)
	if err != nil {
		return sum, err
	}
	defer out.close()

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}

		location := strings.TrimSpace(row[col])
		rec, err := GeocodeOne(ctx, g, location, suffix)
		sum.Total++
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
			log.Warn().Err(err).Str("location", location).Msg("Geocoding failed")
		} else {
			log.Info().
				Str("location", location).
				Str("lat", rec.Lat).
				Str("long", rec.Long).
				Msg("Location geocoded")
		}

		if err := out.write(rec.strings()); err != nil {
			return sum, err
		}
	}

	log.Info().Int("total", sum.Total).Int("failed", sum.Failed).Str("output", outPath).Msg("Geocoding finished")
	return sum, nil
}

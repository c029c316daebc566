package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/nominatim"

	"github.com/rs/zerolog/log"
)

// ReverseHeader is the output header of ConvertCoordinatesToAddress.
var ReverseHeader = []string{"location", "lat", "long", "output_address"}

// ErrMissingColumns is returned when the reverse input lacks location, lat or long.
var ErrMissingColumns = errors.New("input must have location, lat and long columns")

// ReverseRecord is one output row of ConvertCoordinatesToAddress.
type ReverseRecord struct {
	Location      string
	Lat           string
	Long          string
	OutputAddress string
}

func (r ReverseRecord) strings() []string {
	return []string{r.Location, r.Lat, r.Long, r.OutputAddress}
}

// ReverseOne resolves a coordinate pair given as text. On failure
// OutputAddress carries the error text.
func ReverseOne(ctx context.Context, g nominatim.Geocoder, location, lat, long string) (ReverseRecord, error) {
	rec := ReverseRecord{Location: location, Lat: lat, Long: long}

	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		err = fmt.Errorf("%w: lat %q", nominatim.ErrInvalidCoordinate, lat)
		rec.OutputAddress = err.Error()
		return rec, err
	}
	lonF, err := strconv.ParseFloat(strings.TrimSpace(long), 64)
	if err != nil {
		err = fmt.Errorf("%w: long %q", nominatim.ErrInvalidCoordinate, long)
		rec.OutputAddress = err.Error()
		return rec, err
	}

	p, err := g.Reverse(ctx, latF, lonF)
	if err != nil {
		rec.OutputAddress = err.Error()
		return rec, err
	}
	rec.OutputAddress = p.Address

	return rec, nil
}

// ConvertCoordinatesToAddress reverse geocodes an input CSV with columns
// location,lat,long and writes location,lat,long,output_address rows.
func ConvertCoordinatesToAddress(ctx context.Context, g nominatim.Geocoder, inPath, outPath string) (Summary, error) {
	var sum Summary

	in, r, header, err := openInput(inPath)
	if err != nil {
		return sum, err
	}
	defer func() { _ = in.Close() }()

	locCol := columnIndex(header, "location")
	latCol := columnIndex(header, "lat")
	lonCol := columnIndex(header, "long")
	if locCol < 0 || latCol < 0 || lonCol < 0 {
		return sum, fmt.Errorf("%w: got %s", ErrMissingColumns, strings.Join(header, ","))
	}

	out, err := createOutput(outPath, ReverseHeader)
	if err != nil {
		return sum, err
	}
	defer out.close()

	field := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}

		rec, err := ReverseOne(ctx, g, field(row, locCol), field(row, latCol), field(row, lonCol))
		sum.Total++
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
			log.Warn().Err(err).Str("location", rec.Location).Msg("Reverse geocoding failed")
		}

		if err := out.write(rec.strings()); err != nil {
			return sum, err
		}
	}

	log.Info().Int("total", sum.Total).Int("failed", sum.Failed).Str("output", outPath).Msg("Reverse geocoding finished")
	return sum, nil
}

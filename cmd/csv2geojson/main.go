package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/woozymasta/geotoolbox/internal/geo"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input  string `short:"i" long:"in"     description:"Input file path (geotool geocode output). Reads from stdin if empty"`
	Output string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
}

var errMissingColumns = errors.New("input must have location_name, long and lat columns")

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Read Input
	var in io.Reader = os.Stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	fc, skipped, err := convert(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting input: %v\n", err)
		os.Exit(1)
	}

	outputData, err := marshal(fc, opts.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, outputData, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d locations to %s (format: %s, skipped: %d)\n",
			len(fc.Features), opts.Output, opts.Format, skipped)
	} else {
		fmt.Println(string(outputData))
	}
}

// convert turns geocoded rows into point features. Rows without coordinates
// (failed lookups) are counted and skipped.
func convert(r io.Reader) (geo.GeoJSONFeatureCollection, int, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return geo.GeoJSONFeatureCollection{}, 0, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	nameCol, okName := cols["location_name"]
	lonCol, okLon := cols["long"]
	latCol, okLat := cols["lat"]
	if !okName || !okLon || !okLat {
		return geo.GeoJSONFeatureCollection{}, 0, errMissingColumns
	}
	addrCol, okAddr := cols["address_exact"]

	fc := geo.NewFeatureCollection(0)
	skipped := 0

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fc, skipped, err
		}

		lon, errLon := strconv.ParseFloat(rec[lonCol], 64)
		lat, errLat := strconv.ParseFloat(rec[latCol], 64)
		if errLon != nil || errLat != nil {
			skipped++
			continue
		}

		props := map[string]any{"name": rec[nameCol]}
		if okAddr {
			props["address"] = rec[addrCol]
		}
		fc.Features = append(fc.Features, geo.NewPointFeature(geo.Point{Lon: lon, Lat: lat}, props))
	}

	return fc, skipped, nil
}

// marshal encodes fc. YAML goes through a generic JSON decode because
// coordinates are kept as raw JSON.
func marshal(fc geo.GeoJSONFeatureCollection, format string) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil || format != "yaml" {
		return data, err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

package main

import (
	"github.com/woozymasta/geotoolbox/internal/processor"

	"github.com/rs/zerolog/log"
)

type geocodeCommand struct {
	InputFile  string `short:"i" long:"in"     description:"Input CSV with a LOCATIONS column" required:"true"`
	OutputFile string `short:"o" long:"out"    description:"Output CSV path" required:"true"`
	Suffix     string `short:"s" long:"suffix" description:"Appended to every query, e.g. \"United Kingdom\""`
}

func (c *geocodeCommand) Execute([]string) error {
	ctx, cancel, _, tb, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	sum, err := processor.ConvertStringToCoordinates(ctx, tb.Nominatim, c.InputFile, c.OutputFile, c.Suffix)
	if err != nil {
		return err
	}

	log.Info().
		Str("out", c.OutputFile).
		Int("total", sum.Total).
		Int("failed", sum.Failed).
		Msg("Geocoding finished")

	return nil
}

type reverseCommand struct {
	InputFile  string `short:"i" long:"in"  description:"Input CSV with location,lat,long columns" required:"true"`
	OutputFile string `short:"o" long:"out" description:"Output CSV path" required:"true"`
}

func (c *reverseCommand) Execute([]string) error {
	ctx, cancel, _, tb, err := setup()
	if err != nil {
		return err
	}
	defer cancel()

	sum, err := processor.ConvertCoordinatesToAddress(ctx, tb.Nominatim, c.InputFile, c.OutputFile)
	if err != nil {
		return err
	}

	log.Info().
		Str("out", c.OutputFile).
		Int("total", sum.Total).
		Int("failed", sum.Failed).
		Msg("Reverse geocoding finished")

	return nil
}

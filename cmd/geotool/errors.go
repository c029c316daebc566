package main

import "errors"

var (
	errNoLocations       = errors.New("no locations given, use --location or --in")
	errNoLocationsColumn = errors.New("input has no LOCATIONS column")
)

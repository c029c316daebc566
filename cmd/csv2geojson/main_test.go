package main

import (
	"strings"
	"testing"

	"github.com/woozymasta/geotoolbox/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const geocoded = `location_name,long,lat,wkt,address_exact
Croydon,-0.0982,51.3713,POINT (-0.0982 51.3713),"Croydon, London"
Atlantis,,,,"place not found"
`

func TestConvert(t *testing.T) {
	fc, skipped, err := convert(strings.NewReader(geocoded))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "Croydon", f.Properties["name"])
	assert.Equal(t, "Croydon, London", f.Properties["address"])

	p, err := f.Geometry.Point()
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lon: -0.0982, Lat: 51.3713}, p)
}

func TestConvertMissingColumns(t *testing.T) {
	_, _, err := convert(strings.NewReader("location,lat,long\nx,1,2\n"))
	assert.ErrorIs(t, err, errMissingColumns)
}

func TestMarshalYAML(t *testing.T) {
	fc, _, err := convert(strings.NewReader(geocoded))
	require.NoError(t, err)

	data, err := marshal(fc, "yaml")
	require.NoError(t, err)

	var out struct {
		Type     string `yaml:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `yaml:"coordinates"`
			} `yaml:"geometry"`
		} `yaml:"features"`
	}
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, "FeatureCollection", out.Type)
	require.Len(t, out.Features, 1)
	assert.Equal(t, []float64{-0.0982, 51.3713}, out.Features[0].Geometry.Coordinates)
}

package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type crsMember struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

// DecodeFeatures streams the features of a FeatureCollection to fn without
// holding the whole collection in memory. Decoding stops at the first error
// returned by fn.
func DecodeFeatures(r io.Reader, fn func(GeoJSONFeature) error) error {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	found := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, _ := tok.(string)

		switch key {
		case "features":
			found = true
			if err := expectDelim(dec, '['); err != nil {
				return err
			}
			for dec.More() {
				var f GeoJSONFeature
				if err := dec.Decode(&f); err != nil {
					return fmt.Errorf("decode feature: %w", err)
				}
				if err := fn(f); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return fmt.Errorf("close features: %w", err)
			}

		case "crs":
			var crs crsMember
			if err := dec.Decode(&crs); err != nil {
				return fmt.Errorf("decode crs: %w", err)
			}
			if !IsWGS84(crs.Properties.Name) {
				return fmt.Errorf("%w: %s, reproject to EPSG:4326 first", ErrUnsupportedCRS, crs.Properties.Name)
			}

		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("skip %q: %w", key, err)
			}
		}
	}

	if !found {
		return ErrNotFeatureCollection
	}

	return nil
}

// IsWGS84 reports whether a named CRS denotes WGS84 longitude/latitude.
func IsWGS84(name string) bool {
	if name == "" {
		return true
	}
	n := strings.ToUpper(name)
	return strings.HasSuffix(n, "CRS84") || strings.HasSuffix(n, "4326")
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFeatureCollection, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q", ErrNotFeatureCollection, want)
	}
	return nil
}

package geo

import (
	"fmt"
	"strings"
)

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// DefaultGeohashPrecision groups boundary nodes into cells of roughly 156 km.
const DefaultGeohashPrecision = 3

// EncodeGeohash returns the base32 geohash of a coordinate.
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision <= 0 {
		precision = DefaultGeohashPrecision
	}

	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var sb strings.Builder
	sb.Grow(precision)

	even := true
	bit, ch := 0, 0
	for sb.Len() < precision {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon >= mid {
				ch = ch<<1 | 1
				lonRange[0] = mid
			} else {
				ch <<= 1
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch = ch<<1 | 1
				latRange[0] = mid
			} else {
				ch <<= 1
				latRange[1] = mid
			}
		}
		even = !even

		if bit++; bit == 5 {
			sb.WriteByte(geohashAlphabet[ch])
			bit, ch = 0, 0
		}
	}

	return sb.String()
}

// DecodeGeohash returns the cell covered by a geohash.
func DecodeGeohash(hash string) (Box, error) {
	if hash == "" {
		return Box{}, fmt.Errorf("%w: empty", ErrInvalidGeohash)
	}

	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}
	even := true

	for _, c := range strings.ToLower(hash) {
		idx := strings.IndexRune(geohashAlphabet, c)
		if idx < 0 {
			return Box{}, fmt.Errorf("%w: character %q", ErrInvalidGeohash, c)
		}
		for mask := 16; mask > 0; mask >>= 1 {
			r := &latRange
			if even {
				r = &lonRange
			}
			mid := (r[0] + r[1]) / 2
			if idx&mask != 0 {
				r[0] = mid
			} else {
				r[1] = mid
			}
			even = !even
		}
	}

	return Box{
		MinLon: lonRange[0],
		MinLat: latRange[0],
		MaxLon: lonRange[1],
		MaxLat: latRange[1],
	}, nil
}

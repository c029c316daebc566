package geo

import (
	"strconv"
	"strings"
)

// WKTPoint formats a point as Well-Known Text.
func WKTPoint(p Point) string {
	return "POINT (" + formatFloat(p.Lon) + " " + formatFloat(p.Lat) + ")"
}

// WKTPolygon formats a closed ring as a Well-Known Text polygon.
func WKTPolygon(r Ring) string {
	if len(r) == 0 {
		return "POLYGON EMPTY"
	}

	var sb strings.Builder
	sb.WriteString("POLYGON (")
	writeRing(&sb, r)
	sb.WriteByte(')')

	return sb.String()
}

// WKTMultiPolygon formats every part of mp, holes included.
func WKTMultiPolygon(mp MultiPolygon) string {
	if len(mp) == 0 {
		return "MULTIPOLYGON EMPTY"
	}

	var sb strings.Builder
	sb.WriteString("MULTIPOLYGON (")
	for i, poly := range mp {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, r := range poly {
			if j > 0 {
				sb.WriteString(", ")
			}
			writeRing(&sb, r)
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(')')

	return sb.String()
}

func writeRing(sb *strings.Builder, r Ring) {
	sb.WriteByte('(')
	for i, p := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(formatFloat(p.Lon))
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(p.Lat))
	}
	sb.WriteByte(')')
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package geo

import "math"

const epsilon = 1e-12

// Contains reports whether p lies inside the polygon or on its boundary.
// Holes are excluded by even-odd counting across all rings.
func (poly Polygon) Contains(p Point) bool {
	inside := false
	for _, r := range poly {
		if r.onBoundary(p) {
			return true
		}
		if r.crossings(p)%2 == 1 {
			inside = !inside
		}
	}
	return inside
}

// Contains reports whether any polygon contains p.
func (mp MultiPolygon) Contains(p Point) bool {
	for _, poly := range mp {
		if poly.Contains(p) {
			return true
		}
	}
	return false
}

func (r Ring) crossings(p Point) int {
	n := 0
	for i := range r {
		a, b := r[i], r[(i+1)%len(r)]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := a.Lon + (p.Lat-a.Lat)*(b.Lon-a.Lon)/(b.Lat-a.Lat)
			if p.Lon < x {
				n++
			}
		}
	}
	return n
}

func (r Ring) onBoundary(p Point) bool {
	if len(r) == 1 {
		return r[0] == p
	}
	for i := 0; i+1 < len(r); i++ {
		if onSegment(r[i], r[i+1], p) {
			return true
		}
	}
	return false
}

// Intersects reports whether the polygonal geometry and the hull share at
// least one point. The hull may be degenerate: a single point or a segment.
func Intersects(mp MultiPolygon, hull Ring) bool {
	if len(hull) == 0 || len(mp) == 0 {
		return false
	}
	if !mp.Bounds().Intersects(hull.Bounds()) {
		return false
	}

	for _, p := range hull {
		if mp.Contains(p) {
			return true
		}
	}

	if len(hull) >= 4 {
		hullPoly := Polygon{hull}
		for _, poly := range mp {
			if len(poly) > 0 && len(poly[0]) > 0 && hullPoly.Contains(poly[0][0]) {
				return true
			}
		}
	}

	for i := 0; i+1 < len(hull); i++ {
		for _, poly := range mp {
			for _, r := range poly {
				for j := range r {
					if segmentsIntersect(hull[i], hull[i+1], r[j], r[(j+1)%len(r)]) {
						return true
					}
				}
			}
		}
	}

	return false
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > epsilon && d2 < -epsilon) || (d1 < -epsilon && d2 > epsilon)) &&
		((d3 > epsilon && d4 < -epsilon) || (d3 < -epsilon && d4 > epsilon)) {
		return true
	}

	return onSegment(q1, q2, p1) || onSegment(q1, q2, p2) ||
		onSegment(p1, p2, q1) || onSegment(p1, p2, q2)
}

// onSegment reports whether p lies on the closed segment a-b.
func onSegment(a, b, p Point) bool {
	if math.Abs(cross(a, b, p)) > epsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon)-epsilon && p.Lon <= math.Max(a.Lon, b.Lon)+epsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-epsilon && p.Lat <= math.Max(a.Lat, b.Lat)+epsilon
}

package geo

import "math"

// MaxMercatorLat is the latitude limit of the web-mercator projection.
const MaxMercatorLat = 85.05112878

// MercatorY projects a latitude onto the web-mercator Y axis in [-PI..PI].
func MercatorY(lat float64) float64 {
	lat = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
	latRad := lat * math.Pi / 180.0
	return math.Log(math.Tan(math.Pi/4 + latRad/2))
}

// Frame maps coordinates inside a bounding box onto an image of
// width x height pixels using web-mercator, preserving aspect ratio.
type Frame struct {
	originX, originY float64
	scale            float64
	offsetX, offsetY float64
}

// NewFrame fits box into the image leaving padding pixels on every side.
func NewFrame(box Box, width, height, padding int) Frame {
	minX := box.MinLon * math.Pi / 180.0
	maxX := box.MaxLon * math.Pi / 180.0
	minY := MercatorY(box.MinLat)
	maxY := MercatorY(box.MaxLat)

	spanX := maxX - minX
	spanY := maxY - minY
	innerW := float64(width - 2*padding)
	innerH := float64(height - 2*padding)

	scale := 1.0
	switch {
	case spanX > 0 && spanY > 0:
		scale = math.Min(innerW/spanX, innerH/spanY)
	case spanX > 0:
		scale = innerW / spanX
	case spanY > 0:
		scale = innerH / spanY
	}

	return Frame{
		originX: minX,
		originY: maxY,
		scale:   scale,
		offsetX: float64(padding) + (innerW-spanX*scale)/2,
		offsetY: float64(padding) + (innerH-spanY*scale)/2,
	}
}

// Pixel returns the image position of a coordinate. Y grows downwards.
func (f Frame) Pixel(p Point) (x, y float64) {
	mx := p.Lon * math.Pi / 180.0
	my := MercatorY(p.Lat)
	return f.offsetX + (mx-f.originX)*f.scale, f.offsetY + (f.originY-my)*f.scale
}

// Package render draws geometry previews as WebP images.
package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/woozymasta/geotoolbox/internal/geo"

	"github.com/chai2010/webp"
	"golang.org/x/image/vector"
)

// ErrNothingToDraw is returned when no layer has geometry.
var ErrNothingToDraw = errors.New("nothing to draw")

// Layer is a set of polygons drawn with one style.
type Layer struct {
	Polygons []geo.MultiPolygon
	Fill     color.RGBA
	Stroke   color.RGBA
	Width    float32 // outline width in pixels; 0 disables the outline
}

// Options configures a preview.
type Options struct {
	Background color.RGBA
	Size       int     // image width and height in pixels
	Padding    int     // empty border in pixels
	Quality    float32 // WebP quality; 0 encodes lossless
}

// Palette used by the toolbox previews.
var (
	BoundaryStyle = Layer{
		Fill:   color.RGBA{R: 0x1f, G: 0x6f, B: 0xd1, A: 0x60},
		Stroke: color.RGBA{R: 0x1f, G: 0x6f, B: 0xd1, A: 0xff},
		Width:  2,
	}
	AreaStyle = Layer{
		Fill:   color.RGBA{R: 0xe8, G: 0x8a, B: 0x1a, A: 0x50},
		Stroke: color.RGBA{R: 0x9c, G: 0x55, B: 0x00, A: 0xc0},
		Width:  1,
	}
)

// Draw rasterises layers in order onto a square RGBA image.
func Draw(layers []Layer, opts Options) (*image.RGBA, error) {
	if opts.Size <= 0 {
		opts.Size = 512
	}
	if opts.Padding < 0 || 2*opts.Padding >= opts.Size {
		opts.Padding = 0
	}

	box := geo.EmptyBox
	for _, l := range layers {
		for _, mp := range l.Polygons {
			box.Expand(mp.Bounds())
		}
	}
	if box.IsEmpty() {
		return nil, ErrNothingToDraw
	}

	frame := geo.NewFrame(box, opts.Size, opts.Size, opts.Padding)
	img := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	for _, l := range layers {
		for _, mp := range l.Polygons {
			fillPolygons(img, frame, mp, l.Fill)
			if l.Width > 0 {
				strokePolygons(img, frame, mp, l.Stroke, l.Width)
			}
		}
	}

	return img, nil
}

// Preview draws layers and encodes the result as WebP to w.
func Preview(w io.Writer, layers []Layer, opts Options) error {
	img, err := Draw(layers, opts)
	if err != nil {
		return err
	}

	return webp.Encode(w, img, &webp.Options{
		Lossless: opts.Quality <= 0,
		Quality:  opts.Quality,
	})
}

// HullPolygons converts hull rings into drawable polygons. Degenerate hulls
// are widened to a small square so they stay visible.
func HullPolygons(hulls []geo.Ring) []geo.MultiPolygon {
	out := make([]geo.MultiPolygon, 0, len(hulls))
	for _, h := range hulls {
		switch {
		case len(h) == 0:
			continue
		case len(h) < 4:
			b := h.Bounds()
			const pad = 1e-4
			out = append(out, geo.MultiPolygon{{{
				{Lon: b.MinLon - pad, Lat: b.MinLat - pad},
				{Lon: b.MaxLon + pad, Lat: b.MinLat - pad},
				{Lon: b.MaxLon + pad, Lat: b.MaxLat + pad},
				{Lon: b.MinLon - pad, Lat: b.MaxLat + pad},
				{Lon: b.MinLon - pad, Lat: b.MinLat - pad},
			}}})
		default:
			out = append(out, geo.MultiPolygon{{h}})
		}
	}
	return out
}

func fillPolygons(dst *image.RGBA, f geo.Frame, mp geo.MultiPolygon, c color.RGBA) {
	size := dst.Bounds().Size()
	z := vector.NewRasterizer(size.X, size.Y)

	for _, poly := range mp {
		for _, ring := range poly {
			traceRing(z, f, ring)
		}
	}

	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func strokePolygons(dst *image.RGBA, f geo.Frame, mp geo.MultiPolygon, c color.RGBA, width float32) {
	size := dst.Bounds().Size()
	z := vector.NewRasterizer(size.X, size.Y)
	half := width / 2

	for _, poly := range mp {
		for _, ring := range poly {
			for i := 0; i+1 < len(ring); i++ {
				x0, y0 := f.Pixel(ring[i])
				x1, y1 := f.Pixel(ring[i+1])
				segmentQuad(z, float32(x0), float32(y0), float32(x1), float32(y1), half)
			}
		}
	}

	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func traceRing(z *vector.Rasterizer, f geo.Frame, ring geo.Ring) {
	if len(ring) < 3 {
		return
	}

	x, y := f.Pixel(ring[0])
	z.MoveTo(float32(x), float32(y))
	for _, p := range ring[1:] {
		x, y = f.Pixel(p)
		z.LineTo(float32(x), float32(y))
	}
	z.ClosePath()
}

// segmentQuad adds a rectangle of half-width h around the segment.
func segmentQuad(z *vector.Rasterizer, x0, y0, x1, y1, h float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*h, dx/length*h

	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

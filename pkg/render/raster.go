package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Rasterize replays cmds onto a new width×height RGBA image.
func Rasterize(cmds []Command, width, height int) *image.RGBA {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return img
	}
	r := &rasterizer{
		dst:  img,
		vec:  vector.NewRasterizer(width, height),
		clip: clipRect{minX: -16, minY: -16, maxX: float64(width) + 16, maxY: float64(height) + 16},
	}
	for _, c := range cmds {
		r.command(c)
	}
	return img
}

// WritePNG rasterizes cmds and encodes the result as PNG.
func WritePNG(w io.Writer, cmds []Command, width, height int) error {
	if err := png.Encode(w, Rasterize(cmds, width, height)); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

type rasterizer struct {
	dst  *image.RGBA
	vec  *vector.Rasterizer
	clip clipRect
	box  image.Rectangle
}

func (r *rasterizer) command(c Command) {
	switch c.Op {
	case OpClear:
		draw.Draw(r.dst, r.dst.Bounds(), image.NewUniform(mustColor(c.Fill)), image.Point{}, draw.Src)
	case OpLine, OpPolyline:
		for i := 1; i < len(c.Points); i++ {
			r.strokeSegment(c.Points[i-1], c.Points[i], c.Stroke)
		}
	case OpRect:
		if len(c.Points) < 2 {
			return
		}
		a, b := c.Points[0], c.Points[1]
		corners := []Point{{a.X, a.Y}, {b.X, a.Y}, {b.X, b.Y}, {a.X, b.Y}, {a.X, a.Y}}
		for i := 1; i < len(corners); i++ {
			r.strokeSegment(corners[i-1], corners[i], c.Stroke)
		}
	case OpCircle:
		if len(c.Points) == 0 || c.Radius <= 0 {
			return
		}
		r.fillCircle(c.Points[0], c.Radius, mustColor(c.Fill))
	case OpText:
		if len(c.Points) == 0 {
			return
		}
		d := &font.Drawer{
			Dst:  r.dst,
			Src:  image.NewUniform(mustColor(c.Fill)),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(int(math.Round(c.Points[0].X)), int(math.Round(c.Points[0].Y))),
		}
		d.DrawString(c.Text)
	}
}

func (r *rasterizer) strokeSegment(a, b Point, s Stroke) {
	if len(s.Dash) == 0 {
		r.fillSegment(a, b, s.Width, mustColor(s.Color))
		return
	}
	for _, seg := range dashSegments(a, b, s.Dash) {
		r.fillSegment(seg[0], seg[1], s.Width, mustColor(s.Color))
	}
}

// fillSegment fills the quad covering a line of the given width.
func (r *rasterizer) fillSegment(a, b Point, width float64, col color.RGBA) {
	a, b, ok := r.clip.segment(a, b)
	if !ok {
		return
	}
	if width <= 0 {
		width = 1
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	quad := []Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}

	ox, oy, ok := r.begin(quad)
	if !ok {
		return
	}
	r.vec.MoveTo(float32(quad[0].X-ox), float32(quad[0].Y-oy))
	for _, p := range quad[1:] {
		r.vec.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	r.vec.ClosePath()
	r.flush(col)
}

func (r *rasterizer) fillCircle(c Point, radius float64, col color.RGBA) {
	if !r.clip.contains(c) {
		return
	}
	ox, oy, ok := r.begin([]Point{{c.X - radius, c.Y - radius}, {c.X + radius, c.Y + radius}})
	if !ok {
		return
	}
	const k = 0.5522847498
	cx, cy, rad := float32(c.X-ox), float32(c.Y-oy), float32(radius)
	kr := float32(k) * rad

	r.vec.MoveTo(cx, cy-rad)
	r.vec.CubeTo(cx+kr, cy-rad, cx+rad, cy-kr, cx+rad, cy)
	r.vec.CubeTo(cx+rad, cy+kr, cx+kr, cy+rad, cx, cy+rad)
	r.vec.CubeTo(cx-kr, cy+rad, cx-rad, cy+kr, cx-rad, cy)
	r.vec.CubeTo(cx-rad, cy-kr, cx-kr, cy-rad, cx, cy-rad)
	r.vec.ClosePath()
	r.flush(col)
}

// begin sizes the vector rasterizer to the bounding box of pts clamped to
// the image and returns the box origin that path coordinates are shifted by.
// The mask origin of vector.Rasterizer.Draw is the destination rectangle's
// Min corner.
func (r *rasterizer) begin(pts []Point) (ox, oy float64, ok bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
	r.box = box.Intersect(r.dst.Bounds())
	if r.box.Empty() {
		return 0, 0, false
	}
	r.vec.Reset(r.box.Dx(), r.box.Dy())
	return float64(r.box.Min.X), float64(r.box.Min.Y), true
}

func (r *rasterizer) flush(col color.RGBA) {
	r.vec.Draw(r.dst, r.box, image.NewUniform(col), image.Point{})
}

// dashSegments splits a→b into the "on" pieces of the dash pattern.
func dashSegments(a, b Point, pattern []float64) [][2]Point {
	total := 0.0
	for _, p := range pattern {
		total += p
	}
	length := math.Hypot(b.X-a.X, b.Y-a.Y)
	if total <= 0 || length == 0 {
		return [][2]Point{{a, b}}
	}
	ux, uy := (b.X-a.X)/length, (b.Y-a.Y)/length
	at := func(t float64) Point { return Point{a.X + ux*t, a.Y + uy*t} }

	var out [][2]Point
	pos, i := 0.0, 0
	for pos < length {
		n := pattern[i%len(pattern)]
		end := math.Min(pos+n, length)
		if i%2 == 0 && end > pos {
			out = append(out, [2]Point{at(pos), at(end)})
		}
		pos = end
		i++
	}
	return out
}

type clipRect struct {
	minX, minY, maxX, maxY float64
}

func (c clipRect) contains(p Point) bool {
	return p.X >= c.minX && p.X <= c.maxX && p.Y >= c.minY && p.Y <= c.maxY
}

// segment clips a→b to the rectangle (Liang–Barsky).
func (c clipRect) segment(a, b Point) (Point, Point, bool) {
	if math.IsNaN(a.X+a.Y+b.X+b.Y) {
		return a, b, false
	}
	t0, t1 := 0.0, 1.0
	dx, dy := b.X-a.X, b.Y-a.Y
	edges := [4][2]float64{
		{-dx, a.X - c.minX},
		{dx, c.maxX - a.X},
		{-dy, a.Y - c.minY},
		{dy, c.maxY - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return a, b, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return Point{a.X + t0*dx, a.Y + t0*dy}, Point{a.X + t1*dx, a.Y + t1*dy}, true
}

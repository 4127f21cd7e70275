package plot

// Zoom limits and the per-step factor applied by ZoomAt.
const (
	MinZoom    = 0.1
	MaxZoom    = 10.0
	ZoomFactor = 1.1

	// DefaultBaseScale is the number of pixels per math unit at zoom 1.
	DefaultBaseScale = 20.0
)

// ZoomDirection selects whether ZoomAt magnifies or shrinks the view.
type ZoomDirection int

const (
	ZoomIn ZoomDirection = iota
	ZoomOut
)

// Viewport maps between math space (Y up) and pixel space (Y down).
//
// CenterX and CenterY hold the pixel location of the math origin.
type Viewport struct {
	CenterX   float64
	CenterY   float64
	Zoom      float64
	BaseScale float64

	homeX, homeY float64
}

// NewViewport returns a viewport for a width×height surface with the origin
// at the surface center and zoom 1. A non-positive baseScale falls back to
// DefaultBaseScale.
func NewViewport(width, height int, baseScale float64) *Viewport {
	if baseScale <= 0 {
		baseScale = DefaultBaseScale
	}
	cx, cy := float64(width)/2, float64(height)/2
	return &Viewport{
		CenterX:   cx,
		CenterY:   cy,
		Zoom:      1,
		BaseScale: baseScale,
		homeX:     cx,
		homeY:     cy,
	}
}

// Scale returns the effective pixels per math unit.
func (v *Viewport) Scale() float64 {
	return v.BaseScale * v.Zoom
}

// ToPixel converts math coordinates to pixel coordinates.
func (v *Viewport) ToPixel(mx, my float64) (px, py float64) {
	s := v.Scale()
	return v.CenterX + mx*s, v.CenterY - my*s
}

// ToMath converts pixel coordinates to math coordinates.
func (v *Viewport) ToMath(px, py float64) (mx, my float64) {
	s := v.Scale()
	return (px - v.CenterX) / s, (v.CenterY - py) / s
}

// ZoomAt zooms by one step keeping the math point under (px, py) fixed on
// screen.
func (v *Viewport) ZoomAt(px, py float64, dir ZoomDirection) {
	mx, my := v.ToMath(px, py)

	if dir == ZoomIn {
		v.Zoom *= ZoomFactor
	} else {
		v.Zoom /= ZoomFactor
	}
	v.Zoom = clampZoom(v.Zoom)

	s := v.Scale()
	v.CenterX = px - mx*s
	v.CenterY = py + my*s
}

// Pan shifts the view by a pixel delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.CenterX += dx
	v.CenterY += dy
}

// Reset restores the initial center and zoom.
func (v *Viewport) Reset() {
	v.CenterX, v.CenterY = v.homeX, v.homeY
	v.Zoom = 1
}

// Extent returns the math-space rectangle visible on a width×height surface.
func (v *Viewport) Extent(width, height int) Extent {
	left, top := v.ToMath(0, 0)
	right, bottom := v.ToMath(float64(width), float64(height))
	return Extent{MinX: left, MaxX: right, MinY: bottom, MaxY: top}
}

// Extent is an axis-aligned math-space rectangle.
type Extent struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Empty reports whether the extent has no area.
func (e Extent) Empty() bool {
	return e.MaxX <= e.MinX || e.MaxY <= e.MinY
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

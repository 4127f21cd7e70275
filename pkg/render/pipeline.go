// Package render turns a snapshot of the plot state into an ordered list of
// draw commands. Building commands is pure; backends (raster, PDF, terminal
// cells) replay them onto a concrete surface.
package render

import (
	"math"

	"github.com/recera/quadplot/pkg/plot"
)

// Op identifies a draw primitive.
type Op uint8

const (
	OpClear Op = iota
	OpLine
	OpPolyline
	OpCircle
	OpText
	OpRect
)

func (o Op) String() string {
	switch o {
	case OpClear:
		return "clear"
	case OpLine:
		return "line"
	case OpPolyline:
		return "polyline"
	case OpCircle:
		return "circle"
	case OpText:
		return "text"
	case OpRect:
		return "rect"
	}
	return "unknown"
}

// Layer tags which pass produced a command.
type Layer uint8

const (
	LayerBackground Layer = iota
	LayerGrid
	LayerAxes
	LayerCurve
	LayerDots
	LayerLabels
	LayerSelection
)

// Point is a pixel-space coordinate.
type Point struct {
	X, Y float64
}

// Stroke describes how outlines are drawn. An empty Dash means solid.
type Stroke struct {
	Color string    `yaml:"color"`
	Width float64   `yaml:"width"`
	Dash  []float64 `yaml:"dash,omitempty"`
}

// Command is one draw primitive in pixel space.
//
// Line and Rect use Points[0] and Points[1] as endpoints / opposite corners,
// Polyline uses every point, Circle and Text use Points[0] as center and
// baseline origin respectively.
type Command struct {
	Op     Op
	Layer  Layer
	Points []Point
	Radius float64
	Text   string
	Stroke Stroke
	Fill   string
	Font   float64
}

// Scene is the full state snapshot a frame is built from.
type Scene struct {
	Width, Height int
	Viewport      plot.Viewport
	Coefficients  plot.Coefficients
	Dots          []plot.Dot
	// Selection is the rubber band to draw, nil when no gesture is active.
	Selection *plot.Rect
}

const (
	curveStep      = 0.1
	maxCurveSample = 1 << 16
	maxGridLines   = 4096
)

// Build composes the frame for scene. Later commands occlude earlier ones.
func Build(scene Scene, theme Theme) []Command {
	var cmds []Command
	cmds = append(cmds, Command{
		Op:     OpClear,
		Layer:  LayerBackground,
		Points: []Point{{0, 0}, {float64(scene.Width), float64(scene.Height)}},
		Fill:   theme.Background,
	})
	cmds = appendGrid(cmds, scene, theme)
	cmds = appendAxes(cmds, scene, theme)
	cmds = appendCurve(cmds, scene, theme)
	cmds = appendDots(cmds, scene, theme)
	if scene.Selection != nil {
		r := *scene.Selection
		cmds = append(cmds, Command{
			Op:     OpRect,
			Layer:  LayerSelection,
			Points: []Point{{r.MinX, r.MinY}, {r.MaxX, r.MaxY}},
			Stroke: theme.Selection,
		})
	}
	return cmds
}

func appendGrid(cmds []Command, scene Scene, theme Theme) []Command {
	vp := scene.Viewport
	spacing := vp.Scale()
	if spacing <= 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return cmds
	}
	w, h := float64(scene.Width), float64(scene.Height)
	ext := vp.Extent(scene.Width, scene.Height)

	first := math.Floor(ext.MinX)
	if ext.MaxX-first <= maxGridLines {
		for i := first; i <= ext.MaxX; i++ {
			x := vp.CenterX + i*spacing
			cmds = append(cmds, Command{
				Op:     OpLine,
				Layer:  LayerGrid,
				Points: []Point{{x, 0}, {x, h}},
				Stroke: theme.Grid,
			})
		}
	}

	first = math.Floor(ext.MinY)
	if ext.MaxY-first <= maxGridLines {
		for i := first; i <= ext.MaxY; i++ {
			y := vp.CenterY - i*spacing
			cmds = append(cmds, Command{
				Op:     OpLine,
				Layer:  LayerGrid,
				Points: []Point{{0, y}, {w, y}},
				Stroke: theme.Grid,
			})
		}
	}
	return cmds
}

func appendAxes(cmds []Command, scene Scene, theme Theme) []Command {
	vp := scene.Viewport
	w, h := float64(scene.Width), float64(scene.Height)
	return append(cmds,
		Command{
			Op:     OpLine,
			Layer:  LayerAxes,
			Points: []Point{{vp.CenterX, 0}, {vp.CenterX, h}},
			Stroke: theme.Axes,
		},
		Command{
			Op:     OpLine,
			Layer:  LayerAxes,
			Points: []Point{{0, vp.CenterY}, {w, vp.CenterY}},
			Stroke: theme.Axes,
		},
	)
}

// appendCurve samples the curve across the visible x range with a step of
// 0.1/zoom math units, which keeps the pixel distance between samples
// constant at any zoom.
func appendCurve(cmds []Command, scene Scene, theme Theme) []Command {
	vp := scene.Viewport
	if vp.Zoom <= 0 || vp.Scale() <= 0 {
		return cmds
	}
	start, _ := vp.ToMath(0, 0)
	end, _ := vp.ToMath(float64(scene.Width), 0)
	step := curveStep / vp.Zoom

	n := int(math.Floor((end-start)/step)) + 1
	if n < 1 {
		n = 1
	}
	if n > maxCurveSample {
		n = maxCurveSample
	}
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		x := start + float64(i)*step
		px, py := vp.ToPixel(x, scene.Coefficients.Eval(x))
		pts = append(pts, Point{px, py})
	}
	return append(cmds, Command{
		Op:     OpPolyline,
		Layer:  LayerCurve,
		Points: pts,
		Stroke: theme.Curve,
	})
}

func appendDots(cmds []Command, scene Scene, theme Theme) []Command {
	vp := scene.Viewport
	for _, d := range scene.Dots {
		px, py := vp.ToPixel(d.X, d.Y)
		fill := theme.Dot
		if d.Selected {
			fill = theme.DotSelected
		}
		cmds = append(cmds, Command{
			Op:     OpCircle,
			Layer:  LayerDots,
			Points: []Point{{px, py}},
			Radius: theme.DotRadius,
			Fill:   fill,
		})
		if d.Label != "" {
			cmds = append(cmds, Command{
				Op:     OpText,
				Layer:  LayerLabels,
				Points: []Point{{px + theme.LabelOffset, py - theme.LabelOffset}},
				Text:   d.Label,
				Fill:   theme.Label,
				Font:   theme.FontSize,
			})
		}
	}
	return cmds
}

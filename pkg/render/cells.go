package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/quadplot/pkg/plot"
)

// Default terminal cell size in pixels.
const (
	DefaultCellWidth  = 8
	DefaultCellHeight = 16
)

type cell struct {
	r     rune
	fg    string
	layer Layer
	set   bool
}

// CellCanvas renders commands onto a grid of terminal cells. Each cell
// covers CellWidth×CellHeight pixels of the frame.
type CellCanvas struct {
	Cols, Rows            int
	CellWidth, CellHeight float64

	bg    string
	cells []cell
}

// NewCellCanvas creates a cols×rows canvas. Non-positive cell sizes fall back
// to the defaults.
func NewCellCanvas(cols, rows int, cellWidth, cellHeight float64) *CellCanvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultCellHeight
	}
	return &CellCanvas{
		Cols:       cols,
		Rows:       rows,
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
		cells:      make([]cell, cols*rows),
	}
}

// PixelSize returns the frame size in pixels that the canvas covers.
func (c *CellCanvas) PixelSize() (width, height int) {
	return int(float64(c.Cols) * c.CellWidth), int(float64(c.Rows) * c.CellHeight)
}

// CellCenter returns the pixel at the center of cell (col, row).
func (c *CellCanvas) CellCenter(col, row int) (px, py float64) {
	return (float64(col) + 0.5) * c.CellWidth, (float64(row) + 0.5) * c.CellHeight
}

// Draw replays cmds onto the grid. Later commands overwrite earlier ones.
func (c *CellCanvas) Draw(cmds []Command) {
	for _, cmd := range cmds {
		switch cmd.Op {
		case OpClear:
			c.bg = hexColor(cmd.Fill)
			for i := range c.cells {
				c.cells[i] = cell{}
			}
		case OpLine, OpPolyline:
			for i := 1; i < len(cmd.Points); i++ {
				c.segment(cmd.Points[i-1], cmd.Points[i], cmd.Layer, cmd.Stroke)
			}
		case OpRect:
			if len(cmd.Points) < 2 {
				continue
			}
			c.rect(cmd.Points[0], cmd.Points[1], cmd.Layer, cmd.Stroke)
		case OpCircle:
			if len(cmd.Points) == 0 {
				continue
			}
			col, row := c.cellAt(cmd.Points[0])
			c.put(col, row, cell{r: '●', fg: hexColor(cmd.Fill), layer: cmd.Layer})
		case OpText:
			if len(cmd.Points) == 0 {
				continue
			}
			// the point is a baseline origin; the glyphs sit in the row above it
			p := cmd.Points[0]
			col, row := c.cellAt(Point{p.X, p.Y - c.CellHeight/2})
			for _, r := range cmd.Text {
				c.put(col, row, cell{r: r, fg: hexColor(cmd.Fill), layer: cmd.Layer})
				col++
			}
		}
	}
}

// Rune returns the glyph at (col, row), a space for empty or out of range
// cells.
func (c *CellCanvas) Rune(col, row int) rune {
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return ' '
	}
	cl := c.cells[row*c.Cols+col]
	if !cl.set {
		return ' '
	}
	return cl.r
}

// Plain returns the grid as unstyled text, one line per row.
func (c *CellCanvas) Plain() string {
	var b strings.Builder
	for row := 0; row < c.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < c.Cols; col++ {
			b.WriteRune(c.Rune(col, row))
		}
	}
	return b.String()
}

// String renders the grid with lipgloss styles, batching runs of cells that
// share a foreground color.
func (c *CellCanvas) String() string {
	base := lipgloss.NewStyle()
	if c.bg != "" {
		base = base.Background(lipgloss.Color(c.bg))
	}
	var b strings.Builder
	for row := 0; row < c.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		runFg := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			st := base
			if runFg != "" {
				st = st.Foreground(lipgloss.Color(runFg))
			}
			b.WriteString(st.Render(run.String()))
			run.Reset()
		}
		for col := 0; col < c.Cols; col++ {
			cl := c.cells[row*c.Cols+col]
			fg := ""
			if cl.set {
				fg = cl.fg
			}
			if fg != runFg {
				flush()
				runFg = fg
			}
			run.WriteRune(c.Rune(col, row))
		}
		flush()
	}
	return b.String()
}

func (c *CellCanvas) cellAt(p Point) (col, row int) {
	return int(math.Floor(p.X / c.CellWidth)), int(math.Floor(p.Y / c.CellHeight))
}

func (c *CellCanvas) put(col, row int, cl cell) {
	if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
		return
	}
	cl.set = true
	c.cells[row*c.Cols+col] = cl
}

// segment walks a→b in half-cell steps marking every cell it crosses.
func (c *CellCanvas) segment(a, b Point, layer Layer, s Stroke) {
	w, h := c.PixelSize()
	clip := clipRect{minX: 0, minY: 0, maxX: float64(w), maxY: float64(h)}
	a, b, ok := clip.segment(a, b)
	if !ok {
		return
	}
	glyph := strokeGlyph(layer, b.X-a.X, b.Y-a.Y)
	fg := hexColor(s.Color)

	step := math.Min(c.CellWidth, c.CellHeight) / 2
	n := int(math.Ceil(math.Hypot(b.X-a.X, b.Y-a.Y)/step)) + 1
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		col, row := c.cellAt(Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t})
		if col < 0 || row < 0 || col >= c.Cols || row >= c.Rows {
			continue
		}
		r := glyph
		if prev := c.cells[row*c.Cols+col]; prev.set && prev.layer == layer && layer == LayerAxes && prev.r != r {
			r = '┼'
		}
		c.put(col, row, cell{r: r, fg: fg, layer: layer})
	}
}

func (c *CellCanvas) rect(a, b Point, layer Layer, s Stroke) {
	r := plot.RectBetween(a.X, a.Y, b.X, b.Y)
	x0, y0 := c.cellAt(Point{r.MinX, r.MinY})
	x1, y1 := c.cellAt(Point{r.MaxX, r.MaxY})
	fg := hexColor(s.Color)
	horiz, vert := '─', '│'
	if len(s.Dash) > 0 {
		horiz, vert = '╌', '╎'
	}
	for col := x0; col <= x1; col++ {
		c.put(col, y0, cell{r: horiz, fg: fg, layer: layer})
		c.put(col, y1, cell{r: horiz, fg: fg, layer: layer})
	}
	for row := y0; row <= y1; row++ {
		c.put(x0, row, cell{r: vert, fg: fg, layer: layer})
		c.put(x1, row, cell{r: vert, fg: fg, layer: layer})
	}
	c.put(x0, y0, cell{r: '┌', fg: fg, layer: layer})
	c.put(x1, y0, cell{r: '┐', fg: fg, layer: layer})
	c.put(x0, y1, cell{r: '└', fg: fg, layer: layer})
	c.put(x1, y1, cell{r: '┘', fg: fg, layer: layer})
}

func strokeGlyph(layer Layer, dx, dy float64) rune {
	switch layer {
	case LayerGrid:
		return '·'
	case LayerCurve:
		return '•'
	}
	switch {
	case math.Abs(dx) < math.Abs(dy)/2:
		return '│'
	case math.Abs(dy) < math.Abs(dx)/2:
		return '─'
	case (dx > 0) == (dy < 0):
		return '╱'
	default:
		return '╲'
	}
}

func hexColor(s string) string {
	col, err := ParseColor(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B)
}

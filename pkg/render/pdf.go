package render

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF replays cmds onto a single PDF page of width×height points. One
// pixel maps to one point.
func WritePDF(w io.Writer, cmds []Command, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("failed to write pdf: invalid page size %dx%d", width, height)
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	tr := p.UnicodeTranslatorFromDescriptor("")

	for _, c := range cmds {
		switch c.Op {
		case OpClear:
			setFill(p, c.Fill)
			p.Rect(0, 0, float64(width), float64(height), "F")
		case OpLine, OpPolyline:
			setStroke(p, c.Stroke)
			for i := 1; i < len(c.Points); i++ {
				a, b := c.Points[i-1], c.Points[i]
				p.Line(a.X, a.Y, b.X, b.Y)
			}
		case OpRect:
			if len(c.Points) < 2 {
				continue
			}
			setStroke(p, c.Stroke)
			a, b := c.Points[0], c.Points[1]
			p.Rect(a.X, a.Y, b.X-a.X, b.Y-a.Y, "D")
		case OpCircle:
			if len(c.Points) == 0 || c.Radius <= 0 {
				continue
			}
			setFill(p, c.Fill)
			p.Circle(c.Points[0].X, c.Points[0].Y, c.Radius, "F")
		case OpText:
			if len(c.Points) == 0 {
				continue
			}
			col := mustColor(c.Fill)
			p.SetTextColor(int(col.R), int(col.G), int(col.B))
			size := c.Font
			if size <= 0 {
				size = 12
			}
			p.SetFont("Helvetica", "", size)
			p.Text(c.Points[0].X, c.Points[0].Y, tr(c.Text))
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func setStroke(p *gofpdf.Fpdf, s Stroke) {
	col := mustColor(s.Color)
	p.SetDrawColor(int(col.R), int(col.G), int(col.B))
	width := s.Width
	if width <= 0 {
		width = 1
	}
	p.SetLineWidth(width)
	p.SetDashPattern(s.Dash, 0)
}

func setFill(p *gofpdf.Fpdf, s string) {
	col := mustColor(s)
	p.SetFillColor(int(col.R), int(col.G), int(col.B))
}

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recera/quadplot/pkg/plot"
)

func TestCellCanvas_Draw(t *testing.T) {
	canvas := NewCellCanvas(50, 24, 8, 16)
	w, h := canvas.PixelSize()
	assert.Equal(t, 400, w)
	assert.Equal(t, 384, h)

	scene := testScene(w, h) // origin at pixel (200,192): cell (25,12)
	scene.Dots = []plot.Dot{{X: 5, Y: -5, Label: "P"}}
	scene.Selection = &plot.Rect{MinX: 80, MinY: 80, MaxX: 160, MaxY: 160}
	canvas.Draw(Build(scene, DefaultTheme()))

	assert.Equal(t, '│', canvas.Rune(25, 3), "vertical axis")
	assert.Equal(t, '─', canvas.Rune(2, 12), "horizontal axis")
	assert.Equal(t, '●', canvas.Rune(37, 18), "dot at pixel (300,292)")
	assert.Equal(t, 'P', canvas.Rune(38, 17), "label sits above and right of the dot")

	assert.Equal(t, '┌', canvas.Rune(10, 5))
	assert.Equal(t, '╌', canvas.Rune(15, 5))
	assert.Equal(t, '┘', canvas.Rune(20, 10))

	plain := canvas.Plain()
	assert.Len(t, strings.Split(plain, "\n"), 24)
	assert.Contains(t, canvas.String(), "P")
}

func TestCellCanvas_CellCenter(t *testing.T) {
	canvas := NewCellCanvas(10, 5, 0, 0)
	assert.Equal(t, float64(DefaultCellWidth), canvas.CellWidth)

	px, py := canvas.CellCenter(2, 1)
	assert.Equal(t, 20.0, px)
	assert.Equal(t, 24.0, py)
	assert.Equal(t, ' ', canvas.Rune(-1, 0))
	assert.Equal(t, ' ', canvas.Rune(10, 0))
}

func TestCellCanvas_Empty(t *testing.T) {
	canvas := NewCellCanvas(0, 0, 8, 16)
	assert.NotPanics(t, func() { canvas.Draw(Build(testScene(0, 0), DefaultTheme())) })
	assert.Equal(t, "", canvas.Plain())
}

package plot

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_GestureLifecycle(t *testing.T) {
	vp := NewViewport(400, 400, 20) // origin at (200,200)
	store := NewDotStore()
	store.Add(Dot{X: 0, Y: 0, Label: "origin"})
	store.Add(Dot{X: 1, Y: 1, Label: "(1,1)"})   // pixel (220,180)
	store.Add(Dot{X: 5, Y: -5, Label: "(5,-5)"}) // pixel (300,300)

	var sel Selector
	_, ok := sel.Rect()
	require.False(t, ok)

	sel.Begin(230, 170)
	assert.Equal(t, Selecting, sel.State())

	assert.True(t, sel.Move(190, 210))
	assert.False(t, sel.Move(190, 210), "same position should not request redraw")
	r, ok := sel.Rect()
	require.True(t, ok)
	assert.Equal(t, Rect{MinX: 190, MinY: 170, MaxX: 230, MaxY: 210}, r)
	assert.Empty(t, store.SelectedLabels(), "membership must not change during drag")

	labels := sel.End(190, 210, store, vp)
	assert.Equal(t, []string{"origin", "(1,1)"}, labels)
	assert.Equal(t, Idle, sel.State())
	_, _, ok = sel.Anchor()
	assert.False(t, ok)
}

func TestSelector_FullReevaluation(t *testing.T) {
	vp := NewViewport(400, 400, 20)
	store := NewDotStore()
	store.Add(Dot{X: 0, Y: 0, Label: "a"})
	store.Add(Dot{X: 5, Y: 5, Label: "b"})

	var sel Selector
	sel.Begin(0, 0)
	sel.End(400, 400, store, vp)
	require.Equal(t, []string{"a", "b"}, store.SelectedLabels())

	sel.Begin(195, 195)
	labels := sel.End(205, 205, store, vp)
	assert.Equal(t, []string{"a"}, labels)
	assert.Equal(t, []string{"a"}, store.SelectedLabels(), "stale selection must be cleared")
}

func TestSelector_InclusiveBoundsAndZeroArea(t *testing.T) {
	vp := NewViewport(400, 400, 20)
	store := NewDotStore()
	store.Add(Dot{X: 1, Y: 0, Label: "edge"}) // pixel (220,200)

	var sel Selector
	sel.Begin(220, 200)
	assert.Equal(t, []string{"edge"}, sel.End(220, 200, store, vp))

	sel.Begin(221, 200)
	assert.Empty(t, sel.End(221, 200, store, vp))
	assert.Empty(t, store.SelectedLabels())
}

func TestSelector_EndWhileIdle(t *testing.T) {
	store := NewDotStore()
	store.Add(Dot{Selected: true, Label: "kept"})

	var sel Selector
	assert.Nil(t, sel.End(0, 0, store, NewViewport(10, 10, 20)))
	assert.Equal(t, []string{"kept"}, store.SelectedLabels())
	assert.False(t, sel.Move(1, 1))
}

func TestSelector_SelectionSurvivesZoom(t *testing.T) {
	vp := NewViewport(400, 400, 20)
	store := NewDotStore()
	store.Add(Dot{X: 0, Y: 0, Label: "a"})

	var sel Selector
	sel.Begin(190, 190)
	sel.End(210, 210, store, vp)
	vp.ZoomAt(0, 0, ZoomIn)
	vp.Pan(500, 500)

	assert.Equal(t, []string{"a"}, store.SelectedLabels())
}

func TestSelector_CompletenessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pointGen := gen.SliceOfN(2, gen.Float64Range(-30, 30))

	properties.Property("a dot is selected iff its pixel lies in the rectangle", prop.ForAll(
		func(pts [][]float64, x1, y1, x2, y2 float64, zoom float64) bool {
			vp := NewViewport(640, 480, 20)
			vp.Zoom = zoom
			store := NewDotStore()
			for _, p := range pts {
				store.Add(Dot{X: p[0], Y: p[1], Selected: p[0] > 0})
			}

			var sel Selector
			sel.Begin(x1, y1)
			sel.End(x2, y2, store, vp)

			r := RectBetween(x1, y1, x2, y2)
			for _, d := range store.All() {
				px, py := vp.ToPixel(d.X, d.Y)
				if d.Selected != r.Contains(px, py) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(pointGen),
		gen.Float64Range(0, 640),
		gen.Float64Range(0, 480),
		gen.Float64Range(0, 640),
		gen.Float64Range(0, 480),
		gen.Float64Range(MinZoom, MaxZoom),
	))

	properties.TestingRun(t)
}

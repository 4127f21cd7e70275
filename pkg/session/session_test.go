package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/plot"
	"github.com/recera/quadplot/pkg/render"
)

type fakeSink struct {
	sent []live.Message
	full bool
}

func (f *fakeSink) TrySend(m live.Message) bool {
	if f.full {
		return false
	}
	f.sent = append(f.sent, m)
	return true
}

type fakeSurface struct {
	frames [][]render.Command
}

func (f *fakeSurface) Draw(cmds []render.Command) {
	f.frames = append(f.frames, cmds)
}

func newSession(t *testing.T) (*Session, *fakeSink, *fakeSurface) {
	t.Helper()
	sink := &fakeSink{}
	surface := &fakeSurface{}
	s := New(Options{Width: 400, Height: 400, BaseScale: 20}, sink)
	s.Attach(surface)
	return s, sink, surface
}

func TestNew_Defaults(t *testing.T) {
	s, _, surface := newSession(t)

	assert.Equal(t, plot.DefaultCoefficients(), s.Coefficients())
	assert.Empty(t, s.Dots())
	assert.Equal(t, StatusConnecting, s.Status())
	assert.Len(t, surface.frames, 1, "attach draws the first frame")

	vp := s.Viewport()
	assert.Equal(t, 200.0, vp.CenterX)
	assert.Equal(t, 1.0, vp.Zoom)
}

func TestClickPlacesDotOnCurve(t *testing.T) {
	s, sink, surface := newSession(t)
	before := len(surface.frames)

	// pixel 247 is math x 2.35, which rounds to 2
	s.PointerDown(247, 10)
	s.PointerUp(247, 10)

	dots := s.Dots()
	require.Len(t, dots, 1)
	assert.Equal(t, plot.Dot{X: 2, Y: 4, Label: "(2, 4.00)"}, dots[0])
	assert.Empty(t, sink.sent, "empty selections are not reported")
	assert.Greater(t, len(surface.frames), before)
}

func TestClickLabelUsesTwoDecimals(t *testing.T) {
	s, _, _ := newSession(t)
	s.Apply(live.Equation{Coefficients: []float64{1, -4.5, 2.25}})

	s.PointerDown(220, 0) // math x 1
	s.PointerUp(220, 0)
	assert.Equal(t, "(1, -1.25)", s.Dots()[0].Label)

	s.PointerDown(200, 0) // math x 0, y 2.25
	s.PointerUp(200, 0)
	assert.Equal(t, "(0, 2.25)", s.Dots()[1].Label)
}

func TestDragSelectsAndReports(t *testing.T) {
	s, sink, surface := newSession(t)
	s.Apply(live.NewDot{X: 1, Y: 1, Label: "ignored"}) // pixel (220,180)
	s.Apply(live.NewDot{X: 5, Y: -5})                  // pixel (300,300)

	s.PointerDown(210, 170)
	require.True(t, s.Selecting())
	s.PointerMove(230, 190)
	last := surface.frames[len(surface.frames)-1]
	assert.Equal(t, render.OpRect, last[len(last)-1].Op, "rubber band drawn while dragging")
	assert.Empty(t, s.dots.SelectedLabels(), "membership unchanged during drag")

	s.PointerUp(230, 190)
	assert.False(t, s.Selecting())
	require.Len(t, sink.sent, 1)
	assert.Equal(t, live.Selection{Selected: []string{"(1, 1)"}}, sink.sent[0])
	assert.Len(t, s.Dots(), 2, "a drag does not place a dot")

	last = surface.frames[len(surface.frames)-1]
	for _, c := range last {
		assert.NotEqual(t, render.LayerSelection, c.Layer)
	}
}

func TestSelectionReportFailureIsSwallowed(t *testing.T) {
	s, sink, _ := newSession(t)
	sink.full = true
	s.Apply(live.NewDot{X: 0, Y: 0})

	s.PointerDown(150, 150)
	s.PointerMove(250, 250)
	s.PointerUp(250, 250)

	require.Len(t, s.dots.Selected(), 1)
	assert.Empty(t, sink.sent)
}

func TestPointerEventsWithoutPressAreIgnored(t *testing.T) {
	s, _, surface := newSession(t)
	n := len(surface.frames)

	s.PointerMove(10, 10)
	s.PointerUp(10, 10)
	assert.Empty(t, s.Dots())
	assert.Equal(t, n, len(surface.frames))
}

func TestWheelPanReset(t *testing.T) {
	s, _, _ := newSession(t)

	s.Wheel(100, 100, plot.ZoomIn)
	vp := s.Viewport()
	mx, my := vp.ToMath(100, 100)
	assert.InDelta(t, -5, mx, 1e-9)
	assert.InDelta(t, 5, my, 1e-9)
	assert.InDelta(t, 1.1, vp.Zoom, 1e-12)

	s.Pan(10, -20)
	assert.InDelta(t, vp.CenterX+10, s.Viewport().CenterX, 1e-9)

	s.ResetView()
	assert.Equal(t, 200.0, s.Viewport().CenterX)
	assert.Equal(t, 1.0, s.Viewport().Zoom)
}

func TestUtilityActions(t *testing.T) {
	s, _, _ := newSession(t)
	for _, x := range []float64{-1, 0, 1} {
		s.Apply(live.NewDot{X: x, Y: x})
	}
	s.dots.SetSelection(func(d plot.Dot) bool { return d.X >= 0 })

	s.HighlightSelected()
	assert.Equal(t, []string{"(0, 0) ★", "(1, 1) ★"}, s.dots.SelectedLabels())
	assert.Len(t, s.SelectedDots(), 2)

	assert.Equal(t, 2, s.DeleteSelected())
	require.Len(t, s.Dots(), 1)
	assert.Equal(t, "(-1, -1)", s.Dots()[0].Label)

	s.dots.SetSelection(func(plot.Dot) bool { return true })
	s.DeselectAll()
	assert.Empty(t, s.SelectedDots())
	assert.Equal(t, 0, s.DeleteSelected())
}

func TestCalculateGating(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		inv      string
		wantSent bool
		wantK    string
	}{
		{"valid", "4", "3", true, "3"},
		{"prefix parsing", "4.5kg", "3.9", true, "3"},
		{"zero number", "0", "3", false, ""},
		{"zero involutions", "4", "0", false, ""},
		{"empty number", "", "3", false, ""},
		{"text involutions", "4", "many", false, ""},
		{"negative involutions", "4", "-2", true, "-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sink, _ := newSession(t)
			got := s.Calculate(tt.number, tt.inv)
			assert.Equal(t, tt.wantSent, got)
			if !tt.wantSent {
				assert.Empty(t, sink.sent)
				assert.Equal(t, StatusConnecting, s.Status())
				return
			}
			require.Len(t, sink.sent, 1)
			calc := sink.sent[0].(live.Calculate)
			assert.Equal(t, tt.wantK, string(calc.Involutions))
			assert.Equal(t, StatusCalculating, s.Status())
		})
	}
}

func TestCalculateWithoutSink(t *testing.T) {
	s := New(Options{Width: 10, Height: 10}, nil)
	assert.False(t, s.Calculate("4", "3"))

	full := &fakeSink{full: true}
	s.SetSink(full)
	assert.False(t, s.Calculate("4", "3"))
	assert.NotEqual(t, StatusCalculating, s.Status())
}

func TestApply(t *testing.T) {
	s, _, surface := newSession(t)
	s.Apply(live.NewDot{X: 9, Y: 9})

	s.Apply(live.Equation{Coefficients: []float64{1, -4, 2}})
	assert.Equal(t, plot.Coefficients{A: 1, B: -4, C: 2}, s.Coefficients())
	assert.Empty(t, s.Dots(), "equation replacement clears dots")

	s.Apply(live.NewDot{X: 1.6, Y: -2.5, Label: "Dot 1"})
	s.Apply(live.NewDot{X: -0.4, Y: 2.5})
	assert.Equal(t, []plot.Dot{
		{X: 2, Y: -2, Label: "(2, -2)"},
		{X: 0, Y: 3, Label: "(0, 3)"},
	}, s.Dots())

	s.Apply(live.Error{Message: "Invalid input"})
	assert.Equal(t, "Error: Invalid input", s.Status())
	assert.Len(t, s.Dots(), 2, "errors do not mutate state")

	n := len(surface.frames)
	s.Apply(live.Unknown{MessageType: "hello"})
	s.Apply(live.Equation{Coefficients: []float64{1}})
	assert.Equal(t, n, len(surface.frames))
	assert.Equal(t, plot.Coefficients{A: 1, B: -4, C: 2}, s.Coefficients())
}

func TestSetConnectionState(t *testing.T) {
	s, _, _ := newSession(t)
	tests := []struct {
		state live.ConnectionState
		want  string
	}{
		{live.Connected, "Connected"},
		{live.Disconnected, "Disconnected"},
		{live.Errored, "Error"},
		{live.Connecting, "Connecting..."},
	}
	for _, tt := range tests {
		s.SetConnectionState(tt.state)
		assert.Equal(t, tt.want, s.Status())
		assert.Equal(t, tt.state, s.ConnectionState())
	}
}

func TestSetTheme(t *testing.T) {
	s, _, surface := newSession(t)
	theme := render.DefaultTheme()
	theme.Background = "#000"
	s.SetTheme(theme)

	last := surface.frames[len(surface.frames)-1]
	assert.Equal(t, "#000", last[0].Fill)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, 3.0, roundHalfUp(2.5))
	assert.Equal(t, -2.0, roundHalfUp(-2.5))
	assert.Equal(t, "0", formatNumber(roundHalfUp(-0.2)))

	tests := []struct {
		in   float64
		want string
	}{
		{4, "4.00"},
		{-1.25, "-1.25"},
		{0.125, "0.13"},
		{-0.125, "-0.13"},
		{1.005, "1.00"}, // binary value sits below the midpoint
		{-0.001, "-0.00"},
		{2.0 / 3, "0.67"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFixed(tt.in, 2), "%v", tt.in)
	}
	assert.Equal(t, "1e+21", formatNumber(1e21))
	assert.Equal(t, "-7", formatNumber(-7))
}

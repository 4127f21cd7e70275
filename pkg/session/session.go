// Package session owns the client-side plot state and is the single entry
// point for user input and peer messages. It is not safe for concurrent use;
// callers serialize events onto one loop.
package session

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/plot"
	"github.com/recera/quadplot/pkg/render"
)

// DefaultClickSlop is how far, in pixels, the pointer may travel between
// press and release for the gesture to still count as a click.
const DefaultClickSlop = 3

// Status texts.
const (
	StatusConnecting   = "Connecting..."
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
	StatusError        = "Error"
	StatusCalculating  = "Calculating..."
)

// HighlightMark is appended to the label of highlighted dots.
const HighlightMark = " ★"

// Sink accepts outbound messages without blocking. TrySend reports false
// when the message could not be queued.
type Sink interface {
	TrySend(live.Message) bool
}

// Surface receives every redrawn frame.
type Surface interface {
	Draw(cmds []render.Command)
}

// Options configures a Session.
type Options struct {
	Width, Height int
	BaseScale     float64
	ClickSlop     float64
	Theme         *render.Theme
	Logger        *slog.Logger
}

// Session holds the viewport, dots, selection and curve for one plot.
type Session struct {
	width, height int
	vp            *plot.Viewport
	dots          *plot.DotStore
	sel           plot.Selector
	coeffs        plot.Coefficients
	theme         render.Theme

	state  live.ConnectionState
	status string

	sink    Sink
	surface Surface
	logger  *slog.Logger

	clickSlop      float64
	pressX, pressY float64
	moved          bool

	frames int
}

// New creates a session with default coefficients and the origin at the
// surface center. sink may be nil until a connection exists.
func New(opts Options, sink Sink) *Session {
	if opts.Width < 0 {
		opts.Width = 0
	}
	if opts.Height < 0 {
		opts.Height = 0
	}
	if opts.ClickSlop <= 0 {
		opts.ClickSlop = DefaultClickSlop
	}
	theme := render.DefaultTheme()
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		width:     opts.Width,
		height:    opts.Height,
		vp:        plot.NewViewport(opts.Width, opts.Height, opts.BaseScale),
		dots:      plot.NewDotStore(),
		coeffs:    plot.DefaultCoefficients(),
		theme:     theme,
		state:     live.Connecting,
		status:    StatusConnecting,
		sink:      sink,
		logger:    logger.With("component", "session"),
		clickSlop: opts.ClickSlop,
	}
}

// Attach sets the surface frames are drawn to and draws the current frame.
func (s *Session) Attach(surface Surface) {
	s.surface = surface
	s.redraw()
}

// SetSink replaces the outbound channel.
func (s *Session) SetSink(sink Sink) {
	s.sink = sink
}

// SetTheme swaps the palette and redraws.
func (s *Session) SetTheme(theme render.Theme) {
	s.theme = theme
	s.redraw()
}

// PointerDown starts a selection gesture at (px, py).
func (s *Session) PointerDown(px, py float64) {
	s.sel.Begin(px, py)
	s.pressX, s.pressY = px, py
	s.moved = false
	s.redraw()
}

// PointerMove tracks the pointer. During a gesture the rubber band follows it.
func (s *Session) PointerMove(px, py float64) {
	if !s.sel.Active() {
		return
	}
	if math.Hypot(px-s.pressX, py-s.pressY) > s.clickSlop {
		s.moved = true
	}
	if s.sel.Move(px, py) {
		s.redraw()
	}
}

// PointerUp ends the gesture: every dot is re-evaluated against the rubber
// band and a non-empty selection is reported to the peer. A release close to
// the press point also places a dot on the curve.
func (s *Session) PointerUp(px, py float64) {
	if !s.sel.Active() {
		return
	}
	if math.Hypot(px-s.pressX, py-s.pressY) > s.clickSlop {
		s.moved = true
	}
	labels := s.sel.End(px, py, s.dots, s.vp)
	if len(labels) > 0 && s.sink != nil {
		if !s.sink.TrySend(live.Selection{Selected: labels}) {
			s.logger.Debug("selection report dropped", "count", len(labels))
		}
	}
	if !s.moved {
		s.placeDot(px)
	}
	s.redraw()
}

// placeDot adds a dot on the curve at the integer abscissa nearest to px.
func (s *Session) placeDot(px float64) {
	mx, _ := s.vp.ToMath(px, 0)
	x := roundHalfUp(mx)
	y := s.coeffs.Eval(x)
	s.dots.Add(plot.Dot{
		X:     x,
		Y:     y,
		Label: fmt.Sprintf("(%s, %s)", formatNumber(x), formatFixed(y, 2)),
	})
}

// Wheel zooms one step keeping the point under (px, py) fixed.
func (s *Session) Wheel(px, py float64, dir plot.ZoomDirection) {
	s.vp.ZoomAt(px, py, dir)
	s.redraw()
}

// Pan moves the view by a pixel delta.
func (s *Session) Pan(dx, dy float64) {
	s.vp.Pan(dx, dy)
	s.redraw()
}

// ResetView restores the initial center and zoom.
func (s *Session) ResetView() {
	s.vp.Reset()
	s.redraw()
}

// DeleteSelected removes the selected dots and returns how many went away.
func (s *Session) DeleteSelected() int {
	n := s.dots.RemoveSelected()
	s.redraw()
	return n
}

// HighlightSelected appends a star to every selected label.
func (s *Session) HighlightSelected() {
	s.dots.MapSelected(func(d plot.Dot) plot.Dot {
		d.Label += HighlightMark
		return d
	})
	s.redraw()
}

// DeselectAll clears every selection flag.
func (s *Session) DeselectAll() {
	s.dots.SetSelection(func(plot.Dot) bool { return false })
	s.redraw()
}

// SelectedDots logs and returns the selected dots.
func (s *Session) SelectedDots() []plot.Dot {
	sel := s.dots.Selected()
	s.logger.Info("selected dots", "count", len(sel), "dots", sel)
	return sel
}

// Calculate parses the two input fields and asks the peer for an equation.
// Nothing is sent unless both values are non-zero numbers. It reports
// whether a request was queued.
func (s *Session) Calculate(numberText, involutionsText string) bool {
	n := live.ParseFloat(numberText)
	k := live.ParseInt(involutionsText)
	if !truthy(n) || !truthy(k) || s.sink == nil {
		return false
	}
	if k > math.MaxInt32 {
		k = math.MaxInt32
	} else if k < math.MinInt32 {
		k = math.MinInt32
	}
	if !s.sink.TrySend(live.NewCalculate(n, int(k))) {
		s.logger.Debug("calculate request dropped")
		return false
	}
	s.status = StatusCalculating
	s.redraw()
	return true
}

func truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

// Apply folds one peer message into the state. Unknown messages are ignored.
func (s *Session) Apply(msg live.Message) {
	switch m := msg.(type) {
	case live.Equation:
		c, err := m.Curve()
		if err != nil {
			s.logger.Warn("ignoring equation", "error", err)
			return
		}
		s.coeffs = c
		s.dots.Clear()
	case live.NewDot:
		x, y := roundHalfUp(m.X), roundHalfUp(m.Y)
		s.dots.Add(plot.Dot{
			X:     x,
			Y:     y,
			Label: fmt.Sprintf("(%s, %s)", formatNumber(x), formatNumber(y)),
		})
	case live.Error:
		s.status = StatusError + ": " + m.Message
	default:
		return
	}
	s.redraw()
}

// SetConnectionState records the channel state and updates the status text.
func (s *Session) SetConnectionState(state live.ConnectionState) {
	s.state = state
	switch state {
	case live.Connecting:
		s.status = StatusConnecting
	case live.Connected:
		s.status = StatusConnected
	case live.Disconnected:
		s.status = StatusDisconnected
	case live.Errored:
		s.status = StatusError
	}
	s.redraw()
}

// Frame builds the draw commands for the current state.
func (s *Session) Frame() []render.Command {
	return render.Build(s.Scene(), s.theme)
}

// Scene snapshots the state for rendering.
func (s *Session) Scene() render.Scene {
	scene := render.Scene{
		Width:        s.width,
		Height:       s.height,
		Viewport:     *s.vp,
		Coefficients: s.coeffs,
		Dots:         s.dots.All(),
	}
	if r, ok := s.sel.Rect(); ok {
		scene.Selection = &r
	}
	return scene
}

func (s *Session) redraw() {
	s.frames++
	if s.surface != nil {
		s.surface.Draw(s.Frame())
	}
}

// Status returns the status line text.
func (s *Session) Status() string { return s.status }

// ConnectionState returns the last reported channel state.
func (s *Session) ConnectionState() live.ConnectionState { return s.state }

// Coefficients returns the active curve.
func (s *Session) Coefficients() plot.Coefficients { return s.coeffs }

// Dots returns a copy of the dots in insertion order.
func (s *Session) Dots() []plot.Dot { return s.dots.All() }

// Viewport returns a copy of the viewport.
func (s *Session) Viewport() plot.Viewport { return *s.vp }

// Selecting reports whether a gesture is in progress.
func (s *Session) Selecting() bool { return s.sel.Active() }

// Size returns the surface size in pixels.
func (s *Session) Size() (width, height int) { return s.width, s.height }

// Frames returns how many frames have been drawn.
func (s *Session) Frames() int { return s.frames }

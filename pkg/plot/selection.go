package plot

import "math"

// Rect is an axis-aligned pixel rectangle with inclusive bounds.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// RectBetween returns the normalized rectangle spanned by two corners in any
// order.
func RectBetween(x1, y1, x2, y2 float64) Rect {
	return Rect{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

// Contains reports whether (x, y) lies inside or on the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX &&
		y >= r.MinY && y <= r.MaxY
}

// Width returns the horizontal size.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical size.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// SelectionState is the Selector's state.
type SelectionState int

const (
	Idle SelectionState = iota
	Selecting
)

func (s SelectionState) String() string {
	if s == Selecting {
		return "selecting"
	}
	return "idle"
}

// Selector is the rubber-band selection state machine.
//
// Membership is only evaluated on End; while Selecting the selector tracks
// the pointer so the rectangle can be drawn.
type Selector struct {
	state            SelectionState
	anchorX, anchorY float64
	curX, curY       float64
}

// State returns the current state.
func (s *Selector) State() SelectionState {
	return s.state
}

// Active reports whether a gesture is in progress.
func (s *Selector) Active() bool {
	return s.state == Selecting
}

// Anchor returns the gesture start pixel. ok is false when Idle.
func (s *Selector) Anchor() (x, y float64, ok bool) {
	if s.state != Selecting {
		return 0, 0, false
	}
	return s.anchorX, s.anchorY, true
}

// Begin starts a gesture at (px, py). A gesture already in progress is
// restarted from the new anchor.
func (s *Selector) Begin(px, py float64) {
	s.state = Selecting
	s.anchorX, s.anchorY = px, py
	s.curX, s.curY = px, py
}

// Move records the pointer position and reports whether the displayed
// rectangle changed.
func (s *Selector) Move(px, py float64) bool {
	if s.state != Selecting {
		return false
	}
	if px == s.curX && py == s.curY {
		return false
	}
	s.curX, s.curY = px, py
	return true
}

// Rect returns the rectangle between the anchor and the last pointer
// position. ok is false when Idle.
func (s *Selector) Rect() (Rect, bool) {
	if s.state != Selecting {
		return Rect{}, false
	}
	return RectBetween(s.anchorX, s.anchorY, s.curX, s.curY), true
}

// End finishes the gesture at (px, py): every dot in store is re-evaluated
// against the rectangle using vp, and the labels of the selected dots are
// returned in store order. End is a no-op returning nil when Idle.
func (s *Selector) End(px, py float64, store *DotStore, vp *Viewport) []string {
	if s.state != Selecting {
		return nil
	}
	r := RectBetween(s.anchorX, s.anchorY, px, py)
	s.state = Idle
	s.anchorX, s.anchorY, s.curX, s.curY = 0, 0, 0, 0

	store.SetSelection(func(d Dot) bool {
		x, y := vp.ToPixel(d.X, d.Y)
		return r.Contains(x, y)
	})
	return store.SelectedLabels()
}

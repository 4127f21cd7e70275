package plot

// Dot is a labeled point in math space.
type Dot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Label    string  `json:"label"`
	Selected bool    `json:"selected"`
}

// DotStore is the ordered collection of plotted dots. Insertion order is
// preserved and duplicates are allowed.
type DotStore struct {
	dots []Dot
}

// NewDotStore creates an empty store.
func NewDotStore() *DotStore {
	return &DotStore{}
}

// Add appends a dot.
func (s *DotStore) Add(d Dot) {
	s.dots = append(s.dots, d)
}

// RemoveSelected drops every selected dot and returns how many were removed.
func (s *DotStore) RemoveSelected() int {
	kept := s.dots[:0]
	for _, d := range s.dots {
		if !d.Selected {
			kept = append(kept, d)
		}
	}
	removed := len(s.dots) - len(kept)
	// zero the tail so dropped labels are not retained
	for i := len(kept); i < len(s.dots); i++ {
		s.dots[i] = Dot{}
	}
	s.dots = kept
	return removed
}

// Clear removes all dots.
func (s *DotStore) Clear() {
	s.dots = nil
}

// SetSelection replaces every dot's Selected flag with pred(dot).
func (s *DotStore) SetSelection(pred func(Dot) bool) {
	for i := range s.dots {
		s.dots[i].Selected = pred(s.dots[i])
	}
}

// MapSelected rewrites each selected dot in place.
func (s *DotStore) MapSelected(fn func(Dot) Dot) {
	for i := range s.dots {
		if s.dots[i].Selected {
			s.dots[i] = fn(s.dots[i])
		}
	}
}

// All returns a copy of the dots in insertion order.
func (s *DotStore) All() []Dot {
	out := make([]Dot, len(s.dots))
	copy(out, s.dots)
	return out
}

// Len returns the number of dots.
func (s *DotStore) Len() int {
	return len(s.dots)
}

// Selected returns the selected dots in store order.
func (s *DotStore) Selected() []Dot {
	var out []Dot
	for _, d := range s.dots {
		if d.Selected {
			out = append(out, d)
		}
	}
	return out
}

// SelectedLabels returns the labels of the selected dots in store order.
func (s *DotStore) SelectedLabels() []string {
	var out []string
	for _, d := range s.dots {
		if d.Selected {
			out = append(out, d.Label)
		}
	}
	return out
}

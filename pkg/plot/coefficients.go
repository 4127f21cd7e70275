package plot

import "fmt"

// Coefficients define the active curve y = A·x² + B·x + C.
type Coefficients struct {
	A, B, C float64
}

// DefaultCoefficients is the curve shown before any equation arrives: y = x².
func DefaultCoefficients() Coefficients {
	return Coefficients{A: 1}
}

// Eval evaluates the curve at x.
func (c Coefficients) Eval(x float64) float64 {
	return c.A*x*x + c.B*x + c.C
}

// Slice returns the coefficients in wire order.
func (c Coefficients) Slice() []float64 {
	return []float64{c.A, c.B, c.C}
}

// CoefficientsFromSlice builds coefficients from an [a, b, c] triple.
func CoefficientsFromSlice(v []float64) (Coefficients, error) {
	if len(v) != 3 {
		return Coefficients{}, fmt.Errorf("coefficients: want 3 values, got %d", len(v))
	}
	return Coefficients{A: v[0], B: v[1], C: v[2]}, nil
}

func (c Coefficients) String() string {
	return fmt.Sprintf("y = %gx² + %gx + %g", c.A, c.B, c.C)
}

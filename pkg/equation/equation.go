// Package equation derives a quadratic from a magnitude and samples points
// on it for the live peer.
package equation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/plot"
)

// DefaultMaxInvolutions caps the number of points one request may ask for.
const DefaultMaxInvolutions = 10000

// MsgInvalidInput is the error text sent for unusable requests.
const MsgInvalidInput = "Invalid input"

// ErrInvalidInput marks a request that was answered with an error message.
var ErrInvalidInput = errors.New("invalid input")

// Point is one sample on the curve.
type Point struct {
	X, Y  float64
	Label string
}

// Derive returns the curve for magnitude n: y = x² − n·x + n/2.
func Derive(n float64) plot.Coefficients {
	return plot.Coefficients{A: 1, B: -n, C: n / 2}
}

// Points samples k integer abscissas centered on zero:
// x = i − ⌊k/2⌋ for i in [0, k), labeled "Dot i+1".
func Points(c plot.Coefficients, k int) []Point {
	if k <= 0 {
		return nil
	}
	half := int(math.Floor(float64(k) / 2))
	out := make([]Point, k)
	for i := 0; i < k; i++ {
		x := float64(i - half)
		out[i] = Point{X: x, Y: c.Eval(x), Label: fmt.Sprintf("Dot %d", i+1)}
	}
	return out
}

// Service answers calculate requests.
type Service struct {
	MaxInvolutions int
	logger         *slog.Logger
}

// NewService creates a service. maxInvolutions <= 0 selects
// DefaultMaxInvolutions; a nil logger discards output.
func NewService(maxInvolutions int, logger *slog.Logger) *Service {
	if maxInvolutions <= 0 {
		maxInvolutions = DefaultMaxInvolutions
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{MaxInvolutions: maxInvolutions, logger: logger.With("component", "equation")}
}

// Handle replies to req through out: one error message for unusable input,
// otherwise the equation followed by one new_dot per point in order. The
// first failed send stops delivery and is returned.
func (s *Service) Handle(ctx context.Context, req live.Calculate, out live.Sender) error {
	n, k, err := s.Parse(req)
	if err != nil {
		s.logger.Info("rejecting request", "error", err)
		if sendErr := out.Send(ctx, live.Error{Message: MsgInvalidInput}); sendErr != nil {
			return fmt.Errorf("failed to send error: %w", sendErr)
		}
		return nil
	}

	c := Derive(n)
	if err := out.Send(ctx, live.Equation{Coefficients: c.Slice()}); err != nil {
		return fmt.Errorf("failed to send equation: %w", err)
	}
	pts := Points(c, k)
	for i, p := range pts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped after %d of %d points: %w", i, len(pts), err)
		}
		if err := out.Send(ctx, live.NewDot{X: p.X, Y: p.Y, Label: p.Label}); err != nil {
			return fmt.Errorf("failed to send point %d of %d: %w", i+1, len(pts), err)
		}
	}
	s.logger.Debug("answered request", "number", n, "points", len(pts))
	return nil
}

// Parse reads the magnitude and point count of req, enforcing
// MaxInvolutions.
func (s *Service) Parse(req live.Calculate) (n float64, k int, err error) {
	n, k, err = req.Parse()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if k > s.MaxInvolutions {
		return 0, 0, fmt.Errorf("%w: involutions %d above limit %d", ErrInvalidInput, k, s.MaxInvolutions)
	}
	return n, k, nil
}

package equation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/quadplot/pkg/live"
	"github.com/recera/quadplot/pkg/plot"
)

type recorder struct {
	msgs    []live.Message
	failAt  int // 1-based send index that fails, 0 never
	failErr error
}

func (r *recorder) Send(_ context.Context, m live.Message) error {
	if r.failAt > 0 && len(r.msgs)+1 == r.failAt {
		return r.failErr
	}
	r.msgs = append(r.msgs, m)
	return nil
}

func rawCalc(number, involutions string) live.Calculate {
	return live.Calculate{Number: json.RawMessage(number), Involutions: json.RawMessage(involutions)}
}

func TestDerive(t *testing.T) {
	assert.Equal(t, plot.Coefficients{A: 1, B: -4, C: 2}, Derive(4))
	assert.Equal(t, plot.Coefficients{A: 1, B: 2.5, C: -1.25}, Derive(-2.5))
}

func TestPoints(t *testing.T) {
	tests := []struct {
		name  string
		k     int
		wantX []float64
	}{
		{"none", 0, nil},
		{"negative", -3, nil},
		{"one", 1, []float64{0}},
		{"odd", 3, []float64{-1, 0, 1}},
		{"even", 4, []float64{-2, -1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := Points(Derive(4), tt.k)
			var xs []float64
			for _, p := range pts {
				xs = append(xs, p.X)
			}
			assert.Equal(t, tt.wantX, xs)
		})
	}

	pts := Points(Derive(4), 3)
	assert.Equal(t, []Point{
		{X: -1, Y: 7, Label: "Dot 1"},
		{X: 0, Y: 2, Label: "Dot 2"},
		{X: 1, Y: -1, Label: "Dot 3"},
	}, pts)
}

func TestService_Handle(t *testing.T) {
	svc := NewService(0, nil)
	out := &recorder{}

	require.NoError(t, svc.Handle(context.Background(), live.NewCalculate(4, 3), out))
	require.Len(t, out.msgs, 4)
	assert.Equal(t, live.Equation{Coefficients: []float64{1, -4, 2}}, out.msgs[0])
	assert.Equal(t, live.NewDot{X: -1, Y: 7, Label: "Dot 1"}, out.msgs[1])
	assert.Equal(t, live.NewDot{X: 0, Y: 2, Label: "Dot 2"}, out.msgs[2])
	assert.Equal(t, live.NewDot{X: 1, Y: -1, Label: "Dot 3"}, out.msgs[3])
}

func TestService_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  live.Calculate
	}{
		{"null number", rawCalc(`null`, `3`)},
		{"missing involutions", rawCalc(`4`, ``)},
		{"text number", rawCalc(`"abc"`, `3`)},
		{"boolean", rawCalc(`true`, `3`)},
		{"above limit", live.NewCalculate(1, DefaultMaxInvolutions+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &recorder{}
			require.NoError(t, NewService(0, nil).Handle(context.Background(), tt.req, out))
			assert.Equal(t, []live.Message{live.Error{Message: "Invalid input"}}, out.msgs)
		})
	}
}

func TestService_Parse(t *testing.T) {
	svc := NewService(5, nil)

	n, k, err := svc.Parse(rawCalc(`"2.5"`, `"3.9"`))
	require.NoError(t, err)
	assert.Equal(t, 2.5, n)
	assert.Equal(t, 3, k)

	_, _, err = svc.Parse(live.NewCalculate(1, 6))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ZeroInvolutionsSendsOnlyEquation(t *testing.T) {
	out := &recorder{}
	require.NoError(t, NewService(0, nil).Handle(context.Background(), live.NewCalculate(1, 0), out))
	assert.Len(t, out.msgs, 1)
}

func TestService_SendFailureStopsDelivery(t *testing.T) {
	boom := errors.New("boom")
	out := &recorder{failAt: 3, failErr: boom}

	err := NewService(0, nil).Handle(context.Background(), live.NewCalculate(2, 10), out)
	require.ErrorIs(t, err, boom)
	assert.Len(t, out.msgs, 2, "equation and first point only")
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &recorder{}

	err := NewService(0, nil).Handle(ctx, live.NewCalculate(2, 5), out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, out.msgs, 1)
}

func TestService_PointCountProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("k involutions yield one equation and k points", prop.ForAll(
		func(n float64, k int) bool {
			out := &recorder{}
			if err := NewService(0, nil).Handle(context.Background(), live.NewCalculate(n, k), out); err != nil {
				return false
			}
			if len(out.msgs) != k+1 {
				return false
			}
			c := Derive(n)
			for i, m := range out.msgs[1:] {
				dot, ok := m.(live.NewDot)
				if !ok || dot.X != float64(i-k/2) || dot.Y != c.Eval(dot.X) {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-1000, 1000),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}

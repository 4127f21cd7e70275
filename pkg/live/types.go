package live

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/recera/quadplot/pkg/plot"
)

// MessageType is the wire discriminant carried in the "message_type" field.
type MessageType string

const (
	// client → peer
	TypeCalculate MessageType = "calculate"
	TypeSelection MessageType = "selection"

	// peer → client
	TypeEquation MessageType = "equation"
	TypeNewDot   MessageType = "new_dot"
	TypeError    MessageType = "error"
)

// Message is a decoded protocol message.
type Message interface {
	Type() MessageType
}

// Calculate asks the peer for an equation and its sample points.
//
// The fields are kept as raw JSON so the peer can apply its own numeric rules;
// use NewCalculate to build one and Parse to read it.
type Calculate struct {
	Number      json.RawMessage `json:"number"`
	Involutions json.RawMessage `json:"involutions"`
}

// NewCalculate builds a request carrying plain JSON numbers. A non-finite
// number is sent as null since JSON cannot carry it.
func NewCalculate(number float64, involutions int) Calculate {
	n := json.RawMessage("null")
	if !math.IsNaN(number) && !math.IsInf(number, 0) {
		n, _ = json.Marshal(number)
	}
	k, _ := json.Marshal(involutions)
	return Calculate{Number: n, Involutions: k}
}

// Parse reads the magnitude and the point count. Numbers and numeric strings
// are accepted; involutions are truncated toward zero. Missing, null,
// non-numeric or non-finite values yield ErrInvalidInput.
func (c Calculate) Parse() (number float64, involutions int, err error) {
	number, err = rawNumber(c.Number, ParseFloat)
	if err != nil {
		return 0, 0, fmt.Errorf("number: %w", err)
	}
	k, err := rawNumber(c.Involutions, ParseInt)
	if err != nil {
		return 0, 0, fmt.Errorf("involutions: %w", err)
	}
	k = math.Trunc(k)
	if math.Abs(k) > math.MaxInt32 {
		return 0, 0, fmt.Errorf("involutions: %w: %g out of range", ErrInvalidInput, k)
	}
	return number, int(k), nil
}

func rawNumber(raw json.RawMessage, fromString func(string) float64) (float64, error) {
	var v any
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing", ErrInvalidInput)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		f = fromString(t)
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, raw)
	}
	return f, nil
}

// Selection reports the labels of the dots the user just selected.
type Selection struct {
	Selected []string `json:"selected"`
}

// Equation replaces the client's curve.
type Equation struct {
	Coefficients []float64 `json:"coefficients"`
}

// Curve converts the wire triple into plot coefficients.
func (e Equation) Curve() (plot.Coefficients, error) {
	return plot.CoefficientsFromSlice(e.Coefficients)
}

// NewDot adds one sample point on the client.
type NewDot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// Error carries a human readable failure from the peer.
type Error struct {
	Message string `json:"message"`
}

// Unknown is any message whose type is not part of the protocol. Both sides
// ignore it.
type Unknown struct {
	MessageType string
	Raw         []byte
}

func (Calculate) Type() MessageType { return TypeCalculate }
func (Selection) Type() MessageType { return TypeSelection }
func (Equation) Type() MessageType  { return TypeEquation }
func (NewDot) Type() MessageType    { return TypeNewDot }
func (Error) Type() MessageType     { return TypeError }
func (u Unknown) Type() MessageType { return MessageType(u.MessageType) }

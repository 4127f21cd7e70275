package live

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"calculate", NewCalculate(4, 3), `{"message_type":"calculate","number":4,"involutions":3}`},
		{"selection", Selection{Selected: []string{"Dot 1", "Dot 2"}}, `{"message_type":"selection","selected":["Dot 1","Dot 2"]}`},
		{"equation", Equation{Coefficients: []float64{1, -4, 2}}, `{"message_type":"equation","coefficients":[1,-4,2]}`},
		{"new dot", NewDot{X: -1, Y: 7, Label: "Dot 1"}, `{"message_type":"new_dot","x":-1,"y":7,"label":"Dot 1"}`},
		{"error", Error{Message: "Invalid input"}, `{"message_type":"error","message":"Invalid input"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			back, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.msg.Type(), back.Type())
		})
	}
}

func TestEncode_RejectsUnknown(t *testing.T) {
	_, err := Encode(Unknown{MessageType: "ping"})
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = Encode(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"message_type":"new_dot","x":1.6,"y":-2.4,"label":"Dot 9"}`))
	require.NoError(t, err)
	assert.Equal(t, NewDot{X: 1.6, Y: -2.4, Label: "Dot 9"}, msg)

	msg, err = Decode([]byte(`{"message_type":"equation","coefficients":[1,-4,2]}`))
	require.NoError(t, err)
	c, err := msg.(Equation).Curve()
	require.NoError(t, err)
	assert.Equal(t, 7.0, c.Eval(-1))
}

func TestDecode_Unknown(t *testing.T) {
	for _, in := range []string{
		`{"message_type":"hello","x":1}`,
		`{"x":1}`,
	} {
		msg, err := Decode([]byte(in))
		require.NoError(t, err, in)
		u, ok := msg.(Unknown)
		require.True(t, ok, in)
		assert.JSONEq(t, in, string(u.Raw))
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`[1,2,3]`,
		`{"message_type":5}`,
		`{"message_type":"equation","coefficients":[1,2]}`,
		`{"message_type":"new_dot","x":"far"}`,
		`{"message_type":"selection","selected":"Dot 1"}`,
	} {
		_, err := Decode([]byte(in))
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestCalculate_Parse(t *testing.T) {
	tests := []struct {
		name        string
		number, inv string
		wantN       float64
		wantK       int
		wantErr     bool
	}{
		{"numbers", `4`, `3`, 4, 3, false},
		{"fractional involutions truncate", `4`, `3.9`, 4, 3, false},
		{"negative involutions truncate toward zero", `4`, `-2.7`, 4, -2, false},
		{"numeric strings", `" 2.5e1x"`, `"12abc"`, 25, 12, false},
		{"hex involutions", `1`, `"0x10"`, 1, 16, false},
		{"null", `null`, `3`, 0, 0, true},
		{"missing", ``, `3`, 0, 0, true},
		{"text", `"abc"`, `3`, 0, 0, true},
		{"object", `4`, `{}`, 0, 0, true},
		{"infinity", `"Infinity"`, `3`, 0, 0, true},
		{"overflow", `1e400`, `3`, 0, 0, true},
		{"huge involutions", `1`, `1e12`, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Calculate{Number: json.RawMessage(tt.number), Involutions: json.RawMessage(tt.inv)}
			n, k, err := c.Parse()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantN, n)
			assert.Equal(t, tt.wantK, k)
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"4", 4},
		{"  -3.5", -3.5},
		{"4abc", 4},
		{".5", 0.5},
		{"1e3", 1000},
		{"1e", 1},
		{"2.", 2},
		{"0x10", 0},
		{"-Infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFloat(tt.in), tt.in)
	}
	for _, in := range []string{"", "abc", "-", ".", "e5"} {
		assert.True(t, math.IsNaN(ParseFloat(in)), in)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"3", 3},
		{"3.9", 3},
		{" -12px", -12},
		{"0x1f", 31},
		{"+7", 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseInt(tt.in), tt.in)
	}
	for _, in := range []string{"", "x", "-", "0x"} {
		assert.True(t, math.IsNaN(ParseInt(in)), in)
	}
}

package live

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for frames that are not a JSON object or whose
	// body does not match their message type.
	ErrMalformed = errors.New("malformed message")
	// ErrInvalidInput is returned by Calculate.Parse for unusable numbers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConnected is returned when sending without an open connection.
	ErrNotConnected = errors.New("not connected")
)

// Encode serializes m as a JSON object tagged with its message type.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("failed to encode message: %w: nil", ErrMalformed)
	}
	if u, ok := m.(Unknown); ok {
		return nil, fmt.Errorf("failed to encode message: %w: unknown type %q", ErrMalformed, u.MessageType)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", m.Type(), err)
	}
	tag, _ := json.Marshal(m.Type())

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 16)
	buf.WriteString(`{"message_type":`)
	buf.Write(tag)
	if rest := bytes.TrimSpace(body[1:]); len(rest) > 1 {
		buf.WriteByte(',')
		buf.Write(rest)
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Decode parses one frame. Frames without a known message_type decode to
// Unknown with a nil error.
func Decode(data []byte) (Message, error) {
	var env struct {
		MessageType string `json:"message_type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		msg Message
		err error
	)
	switch MessageType(env.MessageType) {
	case TypeCalculate:
		var m Calculate
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeSelection:
		var m Selection
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeEquation:
		var m Equation
		if err = json.Unmarshal(data, &m); err == nil && len(m.Coefficients) != 3 {
			err = fmt.Errorf("equation needs 3 coefficients, got %d", len(m.Coefficients))
		}
		msg = m
	case TypeNewDot:
		var m NewDot
		err = json.Unmarshal(data, &m)
		msg = m
	case TypeError:
		var m Error
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		raw := make([]byte, len(data))
		copy(raw, data)
		return Unknown{MessageType: env.MessageType, Raw: raw}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.MessageType, err)
	}
	return msg, nil
}

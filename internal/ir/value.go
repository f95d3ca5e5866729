package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface over the payloads that flow through
// register slots, instruction operands, and trace records.
// Only Null, Bool, Int, Float, and Str implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null is the absent payload. Reads that land outside every slot window
// produce Null, and operations with nothing to report record it.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool is a boolean payload.
type Bool bool

func (Bool) irValue() {}

// Int is an integer payload. Always int64, never a narrower width.
type Int int64

func (Int) irValue() {}

// Float is a floating-point payload.
//
// Floats carry formatting ambiguity in JSON that integers do not, so
// Float marshals through the canonical rendering: shortest string that
// round-trips, with a trailing .0 for integral values. A decoded stream
// therefore re-encodes byte-identically.
type Float float64

func (Float) irValue() {}

// MarshalJSON implements json.Marshaler for Float.
func (f Float) MarshalJSON() ([]byte, error) {
	s, err := formatCanonicalFloat(float64(f))
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Str is a string payload.
type Str string

func (Str) irValue() {}

// FromAny converts a plain Go value to a Value. Composite types and
// anything outside the scalar sum are an error; there is no implicit
// stringification.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case string:
		return Str(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// Numeric returns the value as a float64 when it is Int or Float.
func Numeric(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// DecodeValue decodes a single JSON scalar into a Value.
// Numbers with a fraction or exponent decode as Float, all others as
// Int. Arrays and objects are rejected.
func DecodeValue(data []byte) (Value, error) {
	s := strings.TrimSpace(string(data))
	if len(s) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch s[0] {
	case '"':
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return nil, err
		}
		return Str(str), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal([]byte(s), &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		if s != "null" {
			return nil, fmt.Errorf("invalid JSON value %q", s)
		}
		return Null{}, nil

	case '[', '{':
		return nil, fmt.Errorf("composite values are not supported: %s", s)

	default:
		return decodeNumber(s)
	}
}

// decodeNumber maps a JSON number onto Int or Float. The split is
// syntactic: a fraction or exponent means Float, otherwise Int. Integers
// too wide for int64 fall back to Float.
func decodeNumber(s string) (Value, error) {
	var n json.Number
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		return nil, err
	}

	if !strings.ContainsAny(string(n), ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
	}

	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return Float(f), nil
}

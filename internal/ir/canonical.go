package ir

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for digest computation and
// golden comparison. The same logical document always encodes to the
// same bytes.
//
// Encoding rules, after RFC 8785 with one deviation:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats are admitted (the deviation) and render as the shortest
//     decimal that round-trips, with a trailing .0 when integral.
//     NaN and the infinities are errors.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case Null:
		return []byte("null"), nil
	case Str:
		return marshalCanonicalString(string(val)), nil
	case Int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Float:
		s, err := formatCanonicalFloat(float64(val))
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case Bool:
		return marshalCanonicalBool(bool(val)), nil
	case string:
		return marshalCanonicalString(val), nil
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case float64:
		s, err := formatCanonicalFloat(val)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case bool:
		return marshalCanonicalBool(val), nil
	case []any:
		return marshalCanonicalArray(val)
	case []Value:
		arr := make([]any, len(val))
		for i, elem := range val {
			arr[i] = elem
		}
		return marshalCanonicalArray(arr)
	case []map[string]any:
		arr := make([]any, len(val))
		for i, elem := range val {
			arr[i] = elem
		}
		return marshalCanonicalArray(arr)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// formatCanonicalFloat renders f as the shortest decimal string that
// parses back to the identical float64. Integral values carry a trailing
// .0 so floats and integers remain distinguishable after a round trip.
func formatCanonicalFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float %v is forbidden in canonical JSON", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

func marshalCanonicalBool(b bool) []byte {
	if b {
		return []byte("true")
	}
	return []byte("false")
}

// marshalCanonicalString encodes a JSON string per RFC 8785: NFC
// normalized, no HTML escaping, U+2028 and U+2029 stay literal. Only
// quote, backslash, and the C0 control characters are escaped, with the
// short escapes where JSON defines them.
func marshalCanonicalString(s string) []byte {
	normalized := norm.NFC.String(s)

	buf := make([]byte, 0, len(normalized)+2)
	buf = append(buf, '"')
	for _, r := range normalized {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(buf, fmt.Sprintf(`\u%04x`, r)...)
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
	}
	buf = append(buf, '"')
	return buf
}

// marshalCanonicalArray marshals an array to canonical JSON.
func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return []byte(buf.String()), nil
}

// marshalCanonicalObject marshals an object with RFC 8785 key ordering.
func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')

	keys := sortedKeysUTF16(obj)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.Write(marshalCanonicalString(k))
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

// sortedKeysUTF16 returns map keys in RFC 8785 canonical order.
// Go's sort.Strings compares UTF-8 bytes, which orders some key sets
// differently; canonical JSON requires UTF-16 code unit order.
func sortedKeysUTF16(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units, the ordering
// RFC 8785 specifies. utf16.Encode handles surrogate pairs correctly.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

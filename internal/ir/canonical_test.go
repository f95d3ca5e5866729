package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{
		"b": Int(1),
		"a": Int(2),
		"c": Int(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(b))
}

func TestMarshalCanonical_SortsKeysByUTF16Units(t *testing.T) {
	// U+1D306 encodes as the surrogate pair D834 DF06 in UTF-16, which
	// sorts before U+FB33. Byte-wise UTF-8 comparison gives the reverse.
	b, err := MarshalCanonical(map[string]any{
		"דּ":     Int(1),
		"\U0001D306": Int(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001D306\":2,\"דּ\":1}", string(b))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	b, err := MarshalCanonical("<a>&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a>&</a>"`, string(b))
}

func TestMarshalCanonical_EscapesControlCharacters(t *testing.T) {
	b, err := MarshalCanonical("line1\nline2\ttab\x01end")
	require.NoError(t, err)
	assert.Equal(t, `"line1\nline2\ttabend"`, string(b))
}

func TestMarshalCanonical_NFCNormalizesStrings(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	precomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	assert.Equal(t, string(precomposed), string(decomposed))
}

func TestMarshalCanonical_FloatRendering(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero gets marker", 0, "0.0"},
		{"integral gets marker", 5, "5.0"},
		{"negative zero", negZero(), "-0.0"},
		{"plain fraction", 1.5, "1.5"},
		{"shortest round trip", 0.1, "0.1"},
		{"large magnitude uses exponent", 1e21, "1e+21"},
		{"frequency style", 24e6, "2.4e+07"},
		{"small magnitude uses exponent", 1e-7, "1e-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}

func negZero() float64 {
	z := 0.0
	return -z
}

func TestMarshalCanonical_RejectsNonFiniteFloats(t *testing.T) {
	_, err := MarshalCanonical(math.Inf(1))
	assert.Error(t, err)

	_, err = MarshalCanonical(math.Inf(-1))
	assert.Error(t, err)

	_, err = MarshalCanonical(math.NaN())
	assert.Error(t, err)
}

func TestMarshalCanonical_ValueVariants(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{
		"null":  Null{},
		"bool":  Bool(true),
		"int":   Int(-3),
		"float": Float(0.5),
		"str":   Str("s"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"bool":true,"float":0.5,"int":-3,"null":null,"str":"s"}`, string(b))
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	doc := map[string]any{
		"trace": []any{
			map[string]any{"tick": int64(0), "sync": true},
			map[string]any{"tick": int64(1), "sync": false},
		},
		"values": []Value{Int(1), Str("two"), Float(2.5)},
		"count":  2,
	}

	b, err := MarshalCanonical(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`{"count":2,"trace":[{"sync":true,"tick":0},{"sync":false,"tick":1}],"values":[1,"two",2.5]}`,
		string(b))
}

func TestMarshalCanonical_DeterministicAcrossCalls(t *testing.T) {
	doc := map[string]any{
		"ab": 0.25, "ao": -0.125, "bo": 0.0,
		"tick": int64(4), "sync": false, "name": "beat",
	}

	first, err := MarshalCanonical(doc)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(doc)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonical_RejectsUnsupportedTypes(t *testing.T) {
	_, err := MarshalCanonical(struct{ X int }{1})
	assert.Error(t, err)

	_, err = MarshalCanonical(uint32(5))
	assert.Error(t, err)
}

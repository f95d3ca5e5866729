package entropy

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPRNG(t *testing.T) *PRNG {
	t.Helper()
	p, err := NewPRNG(newTestSystem(t), 0.1)
	require.NoError(t, err)
	return p
}

func TestNewPRNG_RejectsBadStride(t *testing.T) {
	_, err := NewPRNG(newTestSystem(t), 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPRNG_DeterministicForEqualConstruction(t *testing.T) {
	a := newTestPRNG(t)
	b := newTestPRNG(t)

	for i := 0; i < 16; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64(), "draw %d", i)
	}
}

func TestPRNG_DrawsDoNotRepeat(t *testing.T) {
	p := newTestPRNG(t)

	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		v := p.Uint64()
		assert.False(t, seen[v], "draw %d repeated", i)
		seen[v] = true
	}
}

func TestPRNG_MonobitBalance(t *testing.T) {
	p := newTestPRNG(t)

	const draws = 1000
	ones := 0
	for i := 0; i < draws; i++ {
		ones += bits.OnesCount64(p.Uint64())
	}

	ratio := float64(ones) / float64(draws*64)
	assert.InDelta(t, 0.5, ratio, 0.05)
}

func TestPRNG_Float64InUnitInterval(t *testing.T) {
	p := newTestPRNG(t)

	for i := 0; i < 100; i++ {
		f := p.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestPRNG_RangeBounds(t *testing.T) {
	p := newTestPRNG(t)

	for i := 0; i < 100; i++ {
		assert.Less(t, p.Range(10), uint32(10))
	}
	assert.Zero(t, p.Range(0))
}

func TestPRNG_Uint32IsHighWord(t *testing.T) {
	a := newTestPRNG(t)
	b := newTestPRNG(t)

	assert.Equal(t, uint32(b.Uint64()>>32), a.Uint32())
}

func TestPRNG_FillCoversPartialTail(t *testing.T) {
	a := newTestPRNG(t)
	b := newTestPRNG(t)

	bufA := make([]byte, 13)
	bufB := make([]byte, 13)
	a.Fill(bufA)
	b.Fill(bufB)

	assert.Equal(t, bufA, bufB)
	assert.NotEqual(t, make([]byte, 13), bufA, "fill left buffer zeroed")
}

func TestPRNG_GeneratedCountsDraws(t *testing.T) {
	p := newTestPRNG(t)
	assert.Zero(t, p.Generated())

	p.Uint64()
	p.Float64()
	p.Fill(make([]byte, 16))
	assert.Equal(t, uint64(4), p.Generated())
}

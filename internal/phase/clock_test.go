package phase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClock_RejectsBadFrequency(t *testing.T) {
	tests := []struct {
		name string
		hz   float64
	}{
		{"zero", 0},
		{"negative", -5},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClock("bad", tt.hz)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestClock_Accessors(t *testing.T) {
	c, err := NewClock("Alpha", 5)
	require.NoError(t, err)

	assert.Equal(t, "Alpha", c.Name())
	assert.Equal(t, 5.0, c.Frequency())
	assert.Equal(t, 0.2, c.Period())
}

func TestClock_PhaseAt(t *testing.T) {
	tests := []struct {
		name string
		hz   float64
		t    float64
		want float64
	}{
		{"zero time is zero phase", 5, 0, 0},
		{"half cycle", 5, 0.1, 0.5},
		{"full cycle wraps to zero", 5, 0.2, 0},
		{"wraps past one", 2.5, 1, 0.5},
		{"quarter cycle", 2, 0.125, 0.25},
		{"negative time wraps positive", 1, -0.25, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClock("test", tt.hz)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, c.PhaseAt(tt.t), 1e-9)
		})
	}
}

func TestClock_PhaseAt_AlwaysInUnitInterval(t *testing.T) {
	c, err := NewClock("test", 3.7)
	require.NoError(t, err)

	for _, at := range []float64{-10.25, -1, -0.001, 0, 0.3, 1, 17.77, 1e6} {
		p := c.PhaseAt(at)
		assert.GreaterOrEqual(t, p, 0.0, "phase at t=%v", at)
		assert.Less(t, p, 1.0, "phase at t=%v", at)
	}
}

func TestClock_TickCountsCycles(t *testing.T) {
	c, err := NewClock("test", 1)
	require.NoError(t, err)

	assert.Equal(t, int64(0), c.Ticks())
	assert.Equal(t, int64(1), c.Tick())
	assert.Equal(t, int64(2), c.Tick())
	assert.Equal(t, int64(3), c.Tick())
	assert.Equal(t, int64(3), c.Ticks())
}

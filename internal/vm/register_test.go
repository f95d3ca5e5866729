package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phitlab/triphase/internal/ir"
)

func TestNewRegister_RejectsNonPositiveSlots(t *testing.T) {
	for _, slots := range []int{0, -1} {
		_, err := NewRegister("bad", slots)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestNewRegister_SlotLayout(t *testing.T) {
	r, err := NewRegister("r0", 4)
	require.NoError(t, err)

	require.Equal(t, 4, r.NumSlots())
	slots := r.Slots()
	assert.Equal(t, 0.0, slots[0].Start)
	assert.Equal(t, 0.25, slots[0].End)
	assert.Equal(t, 0.25, slots[1].Start)
	assert.Equal(t, 0.5, slots[1].End)
	assert.Equal(t, 0.75, slots[3].Start)
	assert.Equal(t, 1.0, slots[3].End)

	for i, s := range slots {
		assert.Equal(t, ir.Int(0), s.Value, "slot %d default", i)
	}
}

func TestRegister_WriteSlotThenReadByPhase(t *testing.T) {
	r, err := NewRegister("r0", 4)
	require.NoError(t, err)

	r.WriteSlot(2, ir.Int(99))

	v, ok := r.Read(0.6)
	require.True(t, ok)
	assert.Equal(t, ir.Int(99), v)

	// Neighboring slots are untouched.
	v, ok = r.Read(0.3)
	require.True(t, ok)
	assert.Equal(t, ir.Int(0), v)
}

func TestRegister_WriteByPhase(t *testing.T) {
	r, err := NewRegister("r0", 4)
	require.NoError(t, err)

	assert.True(t, r.Write(0.1, ir.Str("x")))

	v, ok := r.Read(0.1)
	require.True(t, ok)
	assert.Equal(t, ir.Str("x"), v)

	assert.Equal(t, ir.Str("x"), r.Slots()[0].Value)
	assert.Equal(t, ir.Int(0), r.Slots()[1].Value)
}

func TestRegister_ReadNormalizesPhase(t *testing.T) {
	r, err := NewRegister("r0", 4)
	require.NoError(t, err)
	r.WriteSlot(2, ir.Int(7))

	for _, phi := range []float64{0.6, 1.6, -0.4, 2.6} {
		v, ok := r.Read(phi)
		require.True(t, ok, "phi=%v", phi)
		assert.Equal(t, ir.Int(7), v, "phi=%v", phi)
	}
}

func TestRegister_WriteSlotOutOfRangeIgnored(t *testing.T) {
	r, err := NewRegister("r0", 2)
	require.NoError(t, err)

	r.WriteSlot(-1, ir.Int(1))
	r.WriteSlot(2, ir.Int(1))

	assert.Equal(t, ir.Int(0), r.Slots()[0].Value)
	assert.Equal(t, ir.Int(0), r.Slots()[1].Value)
}

func TestRegister_DensityBits(t *testing.T) {
	tests := []struct {
		slots int
		want  float64
	}{
		{1, 0},
		{2, 1},
		{4, 2},
		{8, 3},
	}

	for _, tt := range tests {
		r, err := NewRegister("r0", tt.slots)
		require.NoError(t, err)
		assert.Equal(t, tt.want, r.DensityBits(), "slots=%d", tt.slots)
	}
}

func TestSlot_Contains_WrappedArc(t *testing.T) {
	s := Slot{Value: ir.Int(0), Start: 0.9, End: 0.1}

	assert.True(t, s.Contains(0.95))
	assert.True(t, s.Contains(0.05))
	assert.True(t, s.Contains(0.9))
	assert.False(t, s.Contains(0.1))
	assert.False(t, s.Contains(0.5))
}

func TestSlot_Contains_EmptyArc(t *testing.T) {
	s := Slot{Value: ir.Int(0), Start: 0.3, End: 0.3}

	assert.False(t, s.Contains(0.3))
	assert.False(t, s.Contains(0.2))
}

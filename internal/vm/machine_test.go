package vm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/phase"
)

func newTestMachine(t *testing.T, alphaHz, betaHz, observerHz float64, opts ...Option) *Machine {
	t.Helper()
	m, err := NewMachine(testSystem(t, alphaHz, betaHz, observerHz), opts...)
	require.NoError(t, err)
	return m
}

func TestNewMachine_DefaultBank(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)

	names := m.RegisterNames()
	require.Len(t, names, DefaultRegisterCount)
	for i, name := range names {
		assert.Equal(t, fmt.Sprintf("r%d", i), name)

		r, ok := m.Register(name)
		require.True(t, ok)
		assert.Equal(t, DefaultSlotsPerRegister, r.NumSlots())
	}
}

func TestNewMachine_LayoutOptions(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1, WithRegisterCount(2), WithSlotsPerRegister(8))

	require.Len(t, m.RegisterNames(), 2)
	r, ok := m.Register("r0")
	require.True(t, ok)
	assert.Equal(t, 8, r.NumSlots())
}

func TestNewMachine_ZeroRegistersIsValid(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1, WithRegisterCount(0))
	assert.Empty(t, m.RegisterNames())
}

func TestNewMachine_NegativeRegisterCountFails(t *testing.T) {
	_, err := NewMachine(testSystem(t, 5, 3, 1), WithRegisterCount(-1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewMachine_StepIsObserverPeriod(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)
	assert.Equal(t, 1.0, m.DT())

	fast := newTestMachine(t, 5, 3, 4)
	assert.Equal(t, 0.25, fast.DT())
}

func TestMachine_AddRegister_DuplicateFails(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1, WithRegisterCount(0))

	require.NoError(t, m.AddRegister("acc", 4))
	err := m.AddRegister("acc", 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMachine_Step_AdvancesTimeAndCounter(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)

	for i := 0; i < 3; i++ {
		rec := m.Step()
		assert.Equal(t, int64(i), rec.Tick)
		assert.Equal(t, float64(i+1), rec.Time)
	}

	assert.Equal(t, int64(3), m.PC())
	assert.Equal(t, 3.0, m.Time())
	assert.Len(t, m.Log(), 3)
}

func TestMachine_Step_GatesInstructions(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)
	m.LoadProgram([]Instruction{
		*gate(phase.PairAB, 0, 1),   // fires every tick
		*gate(phase.PairAB, 0.3, 0), // never at integer ticks
	})

	for i := 0; i < 4; i++ {
		rec := m.Step()
		require.Len(t, rec.Executed, 1, "tick %d", i)
		assert.Equal(t, "gate", rec.Executed[0].Op)
		assert.True(t, rec.Sync, "5/3/1 aligns at integer ticks")
	}
}

func TestMachine_Step_RecordsOpErrorsAndContinues(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)

	failing := Instruction{
		Name: "boom", Pair: phase.PairAB, Center: 0, Width: 1,
		Op: func(m *Machine, t float64) (ir.Value, error) {
			return ir.Null{}, errors.New("op exploded")
		},
	}
	m.LoadProgram([]Instruction{failing, *gate(phase.PairAB, 0, 1)})

	rec := m.Step()
	require.Len(t, rec.Executed, 2)
	assert.Equal(t, "op exploded", rec.Executed[0].Err)
	assert.Nil(t, rec.Executed[0].Value)
	assert.Empty(t, rec.Executed[1].Err)
}

func TestMachine_Step_UnboundOpIsRecordedError(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)
	m.LoadProgram([]Instruction{{Name: "hollow", Pair: phase.PairAB, Center: 0, Width: 1}})

	rec := m.Step()
	require.Len(t, rec.Executed, 1)
	assert.Contains(t, rec.Executed[0].Err, "no operation bound")
}

func TestMachine_ReadWriteReg_UsesAccessPhase(t *testing.T) {
	// ab advances 0.25 per tick, so the access phase starts at 0.5 and
	// moves one slot per tick on a 4-slot register.
	m := newTestMachine(t, 1.25, 1, 1)

	ok, err := m.WriteReg("r0", ir.Int(7))
	require.NoError(t, err)
	assert.True(t, ok)

	r, _ := m.Register("r0")
	assert.Equal(t, ir.Int(7), r.Slots()[2].Value)

	v, err := m.ReadReg("r0")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(7), v)

	// After one step the access phase is 0.75: a different slot.
	m.Step()
	v, err = m.ReadReg("r0")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(0), v)
}

func TestMachine_ReadWriteReg_UnknownRegister(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)

	_, err := m.ReadReg("zz")
	require.Error(t, err)
	var unknownErr *UnknownRegisterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "zz", unknownErr.Name)

	_, err = m.WriteReg("zz", ir.Int(1))
	assert.ErrorAs(t, err, &unknownErr)
}

func TestMachine_LoadProgram_ResetsCounterOnly(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)
	m.LoadProgram([]Instruction{*gate(phase.PairAB, 0, 1)})
	m.Run(2)

	_, err := m.WriteReg("r0", ir.Int(5))
	require.NoError(t, err)

	m.LoadProgram([]Instruction{*gate(phase.PairAB, 0, 1)})
	assert.Equal(t, int64(0), m.PC())
	assert.Equal(t, 2.0, m.Time(), "time carries over")
	assert.Len(t, m.Log(), 2, "log carries over")

	v, err := m.ReadReg("r0")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(5), v, "registers carry over")
}

func TestMachine_Run_CollectsRecords(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)

	records := m.Run(5)
	assert.Len(t, records, 5)
	assert.Len(t, m.Log(), 5)

	more := m.Run(2)
	require.Len(t, more, 2)
	assert.Equal(t, int64(5), more[0].Tick)
	assert.Len(t, m.Log(), 7)
}

func TestMachine_Run_NonPositiveCountIsEmpty(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)

	records := m.Run(0)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	records = m.Run(-3)
	assert.Empty(t, records)
}

func TestRecord_CanonicalMap(t *testing.T) {
	rec := Record{
		Tick:   2,
		Time:   3.0,
		Phases: phase.Vector{AB: 0.25, AO: -0.125, BO: 0},
		Executed: []Execution{
			{Op: "sum", Pair: phase.PairAB, Value: ir.Float(150)},
			{Op: "boom", Pair: phase.PairAO, Err: "op exploded"},
		},
		Sync: false,
	}

	b, err := ir.MarshalCanonical(rec.CanonicalMap())
	require.NoError(t, err)
	assert.Equal(t,
		`{"executed":[{"op":"sum","pair":"ab","value":150.0},`+
			`{"error":"op exploded","op":"boom","pair":"ao"}],`+
			`"phases":{"ab":0.25,"ao":-0.125,"bo":0.0},`+
			`"sync":false,"tick":2,"time":3.0}`,
		string(b))
}

func TestCanonicalMaps_PreservesOrder(t *testing.T) {
	m := newTestMachine(t, 5, 3, 1)
	records := m.Run(3)

	maps := CanonicalMaps(records)
	require.Len(t, maps, 3)
	for i, mp := range maps {
		assert.Equal(t, int64(i), mp["tick"])
	}
}

package vm

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/phitlab/triphase/internal/ir"
	"github.com/phitlab/triphase/internal/phase"
)

// Default register file layout.
const (
	DefaultRegisterCount    = 8
	DefaultSlotsPerRegister = 4
)

// Execution is one instruction's outcome within a step.
type Execution struct {
	Op    string
	Pair  phase.Pair
	Value ir.Value
	Err   string // empty on success
}

// Record is the trace entry for one step.
type Record struct {
	Tick     int64
	Time     float64
	Phases   phase.Vector
	Executed []Execution
	Sync     bool
}

// CanonicalMap renders the record in the form digests, storage, and
// golden files consume. Failed executions carry an error key in place
// of a value.
func (r *Record) CanonicalMap() map[string]any {
	executed := make([]any, len(r.Executed))
	for i, e := range r.Executed {
		entry := map[string]any{
			"op":   e.Op,
			"pair": string(e.Pair),
		}
		if e.Err != "" {
			entry["error"] = e.Err
		} else {
			entry["value"] = e.Value
		}
		executed[i] = entry
	}

	return map[string]any{
		"tick": r.Tick,
		"time": r.Time,
		"phases": map[string]any{
			"ab": r.Phases.AB,
			"ao": r.Phases.AO,
			"bo": r.Phases.BO,
		},
		"executed": executed,
		"sync":     r.Sync,
	}
}

// CanonicalMaps renders a record slice for RunDigest.
func CanonicalMaps(records []Record) []map[string]any {
	maps := make([]map[string]any, len(records))
	for i := range records {
		maps[i] = records[i].CanonicalMap()
	}
	return maps
}

// Machine is the triphase virtual machine.
//
// Thread-safety: none. The machine is single-stepped by design; only
// one goroutine may drive it.
type Machine struct {
	system *phase.System
	alu    *ALU

	names     []string
	registers map[string]*Register

	program []Instruction
	pc      int64
	time    float64
	dt      float64
	log     []Record

	regCount    int
	slotsPerReg int
}

// Option allows configuration of machine parameters.
type Option func(*Machine)

// WithRegisterCount sets how many registers the default bank carries.
//
// Default: 8 (DefaultRegisterCount). Zero is valid and starts the
// machine with no registers; AddRegister then installs named ones.
func WithRegisterCount(n int) Option {
	return func(m *Machine) {
		m.regCount = n
	}
}

// WithSlotsPerRegister sets the slot count used for the default bank's
// registers.
//
// Default: 4 (DefaultSlotsPerRegister).
func WithSlotsPerRegister(n int) Option {
	return func(m *Machine) {
		m.slotsPerReg = n
	}
}

// NewMachine builds a machine over sys, stepping one observer period
// per tick. The default register bank is r0 through r7 with four slots
// each; options adjust the layout.
func NewMachine(sys *phase.System, opts ...Option) (*Machine, error) {
	m := &Machine{
		system:      sys,
		alu:         NewALU(sys),
		registers:   make(map[string]*Register),
		dt:          sys.Observer().Period(),
		regCount:    DefaultRegisterCount,
		slotsPerReg: DefaultSlotsPerRegister,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.regCount < 0 {
		return nil, fmt.Errorf("register count must not be negative, got %d: %w", m.regCount, ErrInvalidConfig)
	}

	for i := 0; i < m.regCount; i++ {
		if err := m.AddRegister(fmt.Sprintf("r%d", i), m.slotsPerReg); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// System returns the clock system the machine runs on.
func (m *Machine) System() *phase.System {
	return m.system
}

// ALU returns the machine's arithmetic unit.
func (m *Machine) ALU() *ALU {
	return m.alu
}

// Time returns the current simulated time in seconds.
func (m *Machine) Time() float64 {
	return m.time
}

// DT returns the simulated duration of one step.
func (m *Machine) DT() float64 {
	return m.dt
}

// PC returns the program counter, the number of steps taken so far.
func (m *Machine) PC() int64 {
	return m.pc
}

// Log returns the accumulated step records.
func (m *Machine) Log() []Record {
	return m.log
}

// AddRegister installs a named register with the given slot count.
// Duplicate names are an error.
func (m *Machine) AddRegister(name string, slots int) error {
	if _, exists := m.registers[name]; exists {
		return fmt.Errorf("register %q already exists: %w", name, ErrInvalidConfig)
	}

	r, err := NewRegister(name, slots)
	if err != nil {
		return err
	}
	m.names = append(m.names, name)
	m.registers[name] = r
	return nil
}

// Register returns the named register.
func (m *Machine) Register(name string) (*Register, bool) {
	r, ok := m.registers[name]
	return r, ok
}

// RegisterNames returns register names in insertion order.
func (m *Machine) RegisterNames() []string {
	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// LoadProgram replaces the program and resets the program counter.
// Simulated time, the trace log, and register contents carry over, so
// a second program continues the same phase trajectory.
//
// The instruction slice is copied to prevent external mutation.
func (m *Machine) LoadProgram(program []Instruction) {
	m.program = make([]Instruction, len(program))
	copy(m.program, program)
	m.pc = 0
}

// accessPhase is the phase used for register addressing at time t: the
// alpha-beta phase shifted onto [0, 1).
func (m *Machine) accessPhase(t float64) float64 {
	return math.Mod(m.system.PhaseAB(t)+0.5, 1)
}

// ReadReg reads the named register at the current access phase. A read
// no slot covers returns Null; an unknown name is an error.
func (m *Machine) ReadReg(name string) (ir.Value, error) {
	r, ok := m.registers[name]
	if !ok {
		return ir.Null{}, &UnknownRegisterError{Name: name}
	}

	v, _ := r.Read(m.accessPhase(m.time))
	return v, nil
}

// WriteReg writes v into the named register at the current access
// phase. The boolean reports whether a slot accepted the write.
func (m *Machine) WriteReg(name string, v ir.Value) (bool, error) {
	r, ok := m.registers[name]
	if !ok {
		return false, &UnknownRegisterError{Name: name}
	}
	return r.Write(m.accessPhase(m.time), v), nil
}

// Step advances time by one tick and executes every instruction whose
// gate admits the new phase, in program order. The returned Record is
// also appended to the log.
//
// A failing op is recorded with its error and the step continues.
func (m *Machine) Step() Record {
	m.time += m.dt
	v := m.system.PhaseVector(m.time)

	var executed []Execution
	for i := range m.program {
		instr := &m.program[i]
		if !instr.CanExecute(m.system, m.time) {
			continue
		}

		exec := Execution{Op: instr.Name, Pair: instr.Pair}
		switch result, err := m.execute(instr); {
		case err != nil:
			exec.Err = err.Error()
			slog.Warn("op failed",
				"op", instr.Name,
				"tick", m.pc,
				"error", err,
			)
		default:
			exec.Value = result
		}
		executed = append(executed, exec)
	}

	record := Record{
		Tick:     m.pc,
		Time:     m.time,
		Phases:   v,
		Executed: executed,
		Sync:     m.system.IsSync(m.time, phase.DefaultSyncThreshold),
	}
	m.log = append(m.log, record)
	m.pc++
	return record
}

// execute runs one instruction's operation at the current time.
func (m *Machine) execute(instr *Instruction) (ir.Value, error) {
	if instr.Op == nil {
		return ir.Null{}, fmt.Errorf("instruction %q has no operation bound", instr.Name)
	}
	return instr.Op(m, m.time)
}

// Run steps the machine n times and returns the records for exactly
// those steps. Run may be called repeatedly; each call continues from
// the current time.
func (m *Machine) Run(n int) []Record {
	records := []Record{}
	for i := 0; i < n; i++ {
		records = append(records, m.Step())
	}
	return records
}

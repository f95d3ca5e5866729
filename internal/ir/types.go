package ir

import (
	"encoding/json"
	"fmt"
)

// Op vocabulary for scenario instructions.
const (
	OpAdd    = "add"
	OpMul    = "mul"
	OpHash   = "hash"
	OpSelect = "select"
	OpRead   = "read"
	OpWrite  = "write"
	OpNop    = "nop"
)

// Ops lists the op vocabulary in a fixed order.
var Ops = []string{OpAdd, OpMul, OpHash, OpSelect, OpRead, OpWrite, OpNop}

// Pair vocabulary for gate windows. The IR keeps plain strings so it
// stays free of dependencies on the simulation packages.
const (
	PairAB = "ab"
	PairAO = "ao"
	PairBO = "bo"
)

// Scenario is the compiled form of a triphase scenario: the three clock
// domains, an optional register file layout, and a phase-gated program.
type Scenario struct {
	Name      string            `json:"name"`
	Clocks    ClockSet          `json:"clocks"`
	Registers []RegisterSpec    `json:"registers,omitempty"`
	Program   []InstructionSpec `json:"program"`
	Ticks     int64             `json:"ticks,omitempty"`
}

// ClockSet holds the three clock domains.
type ClockSet struct {
	Alpha    ClockSpec `json:"alpha"`
	Beta     ClockSpec `json:"beta"`
	Observer ClockSpec `json:"observer"`
}

// ClockSpec configures one clock domain.
type ClockSpec struct {
	Name string  `json:"name"`
	Hz   float64 `json:"hz"`
}

// RegisterSpec declares a named register and its slot count.
type RegisterSpec struct {
	Name  string `json:"name"`
	Slots int    `json:"slots"`
}

// InstructionSpec is one phase-gated instruction.
//
// Fields past Op are operand slots; which ones apply depends on the op.
// The compiler guarantees the applicable operands are populated and
// leaves the rest zero.
type InstructionSpec struct {
	Name   string  `json:"name"`
	Pair   string  `json:"pair"`
	Center float64 `json:"center"`
	Width  float64 `json:"width"`
	Op     string  `json:"op"`

	A      float64 `json:"a,omitempty"`      // add, mul: left operand
	B      float64 `json:"b,omitempty"`      // add, mul: right operand
	X      int64   `json:"x,omitempty"`      // hash: input word
	Values []Value `json:"values,omitempty"` // select: candidates
	Source string  `json:"source,omitempty"` // read: register name
	Target string  `json:"target,omitempty"` // write: register name
	Value  Value   `json:"value,omitempty"`  // write: payload
	Dest   string  `json:"dest,omitempty"`   // optional result write-back register
}

// UnmarshalJSON implements json.Unmarshaler for InstructionSpec,
// decoding the Value-typed operands through DecodeValue.
func (s *InstructionSpec) UnmarshalJSON(data []byte) error {
	type alias InstructionSpec
	aux := struct {
		*alias
		Values []json.RawMessage `json:"values,omitempty"`
		Value  json.RawMessage   `json:"value,omitempty"`
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Values != nil {
		s.Values = make([]Value, len(aux.Values))
		for i, raw := range aux.Values {
			v, err := DecodeValue(raw)
			if err != nil {
				return fmt.Errorf("instruction %q values[%d]: %w", s.Name, i, err)
			}
			s.Values[i] = v
		}
	}
	if len(aux.Value) > 0 {
		v, err := DecodeValue(aux.Value)
		if err != nil {
			return fmt.Errorf("instruction %q value: %w", s.Name, err)
		}
		s.Value = v
	}
	return nil
}

// CanonicalMap renders the scenario as a map ready for MarshalCanonical.
// Operand fields appear only when their op uses them, so two spellings
// of the same scenario canonicalize identically.
func (s *Scenario) CanonicalMap() map[string]any {
	program := make([]any, len(s.Program))
	for i, instr := range s.Program {
		program[i] = instr.canonicalMap()
	}

	m := map[string]any{
		"name": s.Name,
		"clocks": map[string]any{
			"alpha":    s.Clocks.Alpha.canonicalMap(),
			"beta":     s.Clocks.Beta.canonicalMap(),
			"observer": s.Clocks.Observer.canonicalMap(),
		},
		"program": program,
		"ticks":   s.Ticks,
	}

	if len(s.Registers) > 0 {
		regs := make([]any, len(s.Registers))
		for i, r := range s.Registers {
			regs[i] = map[string]any{
				"name":  r.Name,
				"slots": int64(r.Slots),
			}
		}
		m["registers"] = regs
	}
	return m
}

func (c ClockSpec) canonicalMap() map[string]any {
	return map[string]any{
		"name": c.Name,
		"hz":   c.Hz,
	}
}

func (s InstructionSpec) canonicalMap() map[string]any {
	m := map[string]any{
		"name":   s.Name,
		"pair":   s.Pair,
		"center": s.Center,
		"width":  s.Width,
		"op":     s.Op,
	}

	switch s.Op {
	case OpAdd, OpMul:
		m["a"] = s.A
		m["b"] = s.B
	case OpHash:
		m["x"] = s.X
	case OpSelect:
		vals := make([]any, len(s.Values))
		for i, v := range s.Values {
			vals[i] = v
		}
		m["values"] = vals
	case OpRead:
		m["source"] = s.Source
	case OpWrite:
		m["target"] = s.Target
		m["value"] = s.Value
	}

	if s.Dest != "" {
		m["dest"] = s.Dest
	}
	return m
}

// MarshalCanonicalScenario is a convenience wrapper for the scenario's
// canonical byte form, the exact bytes the store persists.
func MarshalCanonicalScenario(s *Scenario) ([]byte, error) {
	return MarshalCanonical(s.CanonicalMap())
}

package vm

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig reports a machine or register construction parameter
// outside its domain.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrEmptySelection reports a phase select over zero candidates.
var ErrEmptySelection = errors.New("empty selection")

// UnknownRegisterError identifies a register access by a name the
// machine does not carry.
type UnknownRegisterError struct {
	Name string
}

func (e *UnknownRegisterError) Error() string {
	return fmt.Sprintf("unknown register %q", e.Name)
}

// UnknownOpError identifies an op outside the instruction vocabulary.
type UnknownOpError struct {
	Op string
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("unknown op %q", e.Op)
}

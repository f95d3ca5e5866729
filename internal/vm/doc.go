// Package vm implements the triphase machine: a single-stepped
// interpreter whose instruction gating, register addressing, and
// arithmetic all derive from the relative phase of three clock domains.
//
// ARCHITECTURE:
//
// Single-Stepped Execution:
// The machine advances in discrete steps of one observer period. Each
// step samples the phase vector once, walks the program in declaration
// order, and appends one Record to the trace log. All state lives in
// the Machine; nothing reads the wall clock.
//
// Step Processing Flow:
// 1. Advance simulated time by dt (one observer period)
// 2. Sample the relative phase vector at the new time
// 3. For each instruction in program order: evaluate its gate window,
//    run the bound operation when the window admits the current phase
// 4. Append the step Record (phases, executions, sync flag) to the log
//
// An operation that fails is recorded in the step Record and execution
// continues. A failed op never halts the run.
//
// Determinism: a machine built from the same scenario and stepped the
// same number of times produces a byte-identical trace on the same
// platform. Replay verification and golden tests depend on this.
package vm

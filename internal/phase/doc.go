// Package phase models free-running clock domains and their relative
// phase geometry.
//
// A Clock's phase is a pure function of absolute time, so every quantity
// in this package is deterministic: the same time always yields the same
// phases, with no hidden state and no wall-clock reads.
//
// Relative phase between two clocks is their phase difference wrapped to
// the unit circle with round-half-to-even. The wrap keeps values in
// [-0.5, 0.5] with both half-cycle endpoints reachable; consumers treat
// the axis as circular rather than assuming an exclusive upper bound.
package phase

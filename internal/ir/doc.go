// Package ir defines the compiled scenario form and the canonical JSON
// encoding used for digests and golden traces.
//
// This package is the foundational layer: all other internal packages
// import ir; ir imports nothing internal.
//
// Values that flow through registers and trace records are a closed sum:
// Null, Bool, Int, Float, and Str. Canonical JSON follows RFC 8785 key
// ordering and escaping, with floats admitted under a fixed shortest
// round-trip rendering. Identical float bit patterns always encode to
// identical bytes, which is the property digests and golden files rely
// on.
package ir

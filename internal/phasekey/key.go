// Package phasekey derives XOR keystreams from clock phase.
//
// The key is never stored: both sides reconstruct the keystream from
// the clock frequencies and the instant of encryption, so the secret
// is the frequency ratio plus the time. This illustrates phase as a
// shared ephemeral key. It is a simplified key derivation, not a
// cryptographic primitive.
package phasekey

import (
	"math"

	"github.com/phitlab/triphase/internal/phase"
)

// goldenRatio perturbs the keystream per byte position so equal phases
// still yield a varying stream.
const goldenRatio = 0.618033988749895

// Key captures the three clock frequencies of a system. Two keys agree
// exactly when their systems run the same frequencies.
type Key struct {
	freqs [3]float64
}

// NewKey derives a key from the alpha, beta, and observer frequencies
// of sys.
func NewKey(sys *phase.System) Key {
	return Key{freqs: [3]float64{
		sys.Alpha().Frequency(),
		sys.Beta().Frequency(),
		sys.Observer().Frequency(),
	}}
}

// KeystreamByte returns the keystream byte for position index at time
// t. The absolute phase of each clock at t is scaled onto separate
// byte lanes, the index adds a golden-ratio offset, and the combined
// value is whitened with the SplitMix64 finalizer.
func (k Key) KeystreamByte(t float64, index int) byte {
	var phi [3]float64
	for i, f := range k.freqs {
		phi[i] = math.Mod(f*t, 1)
	}

	combined := phi[0]*256 +
		phi[1]*65536 +
		phi[2]*16777216 +
		float64(index)*goldenRatio

	return byte(mix64(math.Float64bits(combined)))
}

// XORKeystream XORs data with the keystream anchored at time t and
// returns the result as a new slice. The operation is symmetric:
// applying it twice at the same t restores the input.
func (k Key) XORKeystream(t float64, data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ k.KeystreamByte(t, i)
	}
	return out
}

// mix64 is the SplitMix64 finalizer.
func mix64(x uint64) uint64 {
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

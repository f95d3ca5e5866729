// Package entropy derives pseudo-random numbers from the simulated
// phase vector.
//
// The pipeline (sample, pool mixing, whitened extraction) keeps the
// shape of a hardware jitter harvester, but fed from a simulation it
// is fully deterministic for a given clock configuration. It
// demonstrates that relative phase carries extractable information;
// it is not a source of real entropy.
package entropy

// Pool is a 256-bit mixing pool. A monotonic counter spreads samples
// across the four lanes so repeated identical samples never cancel.
type Pool struct {
	lanes   [4]uint64
	counter uint64
	bits    int
}

// Feed mixes one sample into the pool.
func (p *Pool) Feed(sample uint64) {
	p.counter++

	z := mix64(sample + p.counter*0x9E3779B97F4A7C15)
	slot := p.counter & 3
	p.lanes[slot] ^= z
	p.lanes[(slot+1)&3] ^= rotl(p.lanes[slot], 17)

	p.bits += 2
}

// Extract folds the four lanes into one 64-bit value. The pool is
// perturbed after every extraction, so consecutive extractions differ
// even without fresh feeds.
func (p *Pool) Extract() uint64 {
	out := p.lanes[0]
	out ^= rotl(p.lanes[1], 13)
	out ^= rotl(p.lanes[2], 29)
	out ^= rotl(p.lanes[3], 43)

	p.lanes[0] ^= rotl(out, 7)
	p.lanes[1] ^= rotl(out, 23)
	return out
}

// BitsCollected estimates the phase information fed in so far, at two
// bits per sample.
func (p *Pool) BitsCollected() int {
	return p.bits
}

// mix64 is the SplitMix64 finalizer.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func rotl(x uint64, k uint) uint64 {
	return x<<k | x>>(64-k)
}

package entropy

import (
	"encoding/binary"
	"math"

	"github.com/phitlab/triphase/internal/phase"
)

// seedRounds is how many harvests initialize the pool.
const seedRounds = 16

// PRNG is a deterministic pseudo-random generator seeded and refreshed
// from a phase source.
type PRNG struct {
	source    *Source
	pool      Pool
	generated uint64
}

// NewPRNG builds a generator over sys, sampling every stride seconds.
// Generators built with equal frequencies and stride produce identical
// streams.
func NewPRNG(sys *phase.System, stride float64) (*PRNG, error) {
	src, err := NewSource(sys, stride)
	if err != nil {
		return nil, err
	}

	p := &PRNG{source: src}
	for i := 0; i < seedRounds; i++ {
		p.harvest()
	}
	return p, nil
}

// harvest feeds one fresh sample and its time bits into the pool.
func (p *PRNG) harvest() {
	sample := p.source.Next()
	tb := math.Float64bits(p.source.Cursor())
	p.pool.Feed(tb)
	p.pool.Feed(sample ^ tb)
}

// Uint64 returns the next 64 random bits. Four fresh harvests go into
// the pool before each extraction.
func (p *PRNG) Uint64() uint64 {
	for i := 0; i < 4; i++ {
		p.harvest()
	}
	p.generated++
	return p.pool.Extract()
}

// Uint32 returns the high word of the next 64-bit draw.
func (p *PRNG) Uint32() uint32 {
	return uint32(p.Uint64() >> 32)
}

// Float64 returns a uniform value in [0, 1).
func (p *PRNG) Float64() float64 {
	return float64(p.Uint64()>>11) / float64(1<<53)
}

// Range returns a value in [0, max). A max of zero returns zero.
func (p *PRNG) Range(max uint32) uint32 {
	if max == 0 {
		return 0
	}
	return uint32(p.Uint64() % uint64(max))
}

// Fill overwrites buf with random bytes, consuming one draw per eight
// bytes, little-endian.
func (p *PRNG) Fill(buf []byte) {
	for len(buf) >= 8 {
		binary.LittleEndian.PutUint64(buf, p.Uint64())
		buf = buf[8:]
	}
	if len(buf) > 0 {
		v := p.Uint64()
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
	}
}

// Generated reports how many 64-bit draws have been made.
func (p *PRNG) Generated() uint64 {
	return p.generated
}

package phasekey

import (
	"errors"

	"github.com/phitlab/triphase/internal/phase"
)

// ErrPhaseLocked reports an access attempt outside the lock's phase
// window.
var ErrPhaseLocked = errors.New("phase window closed")

// Lock gates keystream access on a relative-phase window: data sealed
// by the lock opens only at instants where the chosen clock pair's
// phase falls inside the window.
type Lock struct {
	system *phase.System
	key    Key
	pair   phase.Pair
	window phase.Window
}

// NewLock builds a lock over sys watching the given pair. Center and
// width describe the admitting arc of relative phase.
func NewLock(sys *phase.System, pair phase.Pair, center, width float64) *Lock {
	return &Lock{
		system: sys,
		key:    NewKey(sys),
		pair:   pair,
		window: phase.Window{Center: center, Width: width},
	}
}

// Permits reports whether the window admits the pair's relative phase
// at time t. An unknown pair never permits.
func (l *Lock) Permits(t float64) bool {
	phi, ok := l.system.Relative(l.pair, t)
	if !ok {
		return false
	}
	return l.window.Contains(phi)
}

// Seal encrypts plain at time t, failing with ErrPhaseLocked outside
// the window.
func (l *Lock) Seal(t float64, plain []byte) ([]byte, error) {
	if !l.Permits(t) {
		return nil, ErrPhaseLocked
	}
	return l.key.XORKeystream(t, plain), nil
}

// OpenAt decrypts cipher at time t, failing with ErrPhaseLocked
// outside the window. Opening at a different admitted instant than the
// seal yields garbage, not an error.
func (l *Lock) OpenAt(t float64, cipher []byte) ([]byte, error) {
	if !l.Permits(t) {
		return nil, ErrPhaseLocked
	}
	return l.key.XORKeystream(t, cipher), nil
}

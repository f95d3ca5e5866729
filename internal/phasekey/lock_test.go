package phasekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phitlab/triphase/internal/phase"
)

// lockSystem has fractional alpha and beta frequencies so consecutive
// integer instants align in relative phase but differ in absolute
// phase.
func lockSystem(t *testing.T) *phase.System {
	t.Helper()
	sys, err := phase.SimpleSystem(5.5, 3.5, 1)
	require.NoError(t, err)
	return sys
}

func TestLock_PermitsOnlyInsideWindow(t *testing.T) {
	lock := NewLock(lockSystem(t), phase.PairAB, 0, 0.1)

	assert.True(t, lock.Permits(1.0), "alpha and beta align at t=1")
	assert.False(t, lock.Permits(0.25), "phases are opposed at t=0.25")
}

func TestLock_SealOpenRoundTrip(t *testing.T) {
	lock := NewLock(lockSystem(t), phase.PairAB, 0, 0.1)

	cipher, err := lock.Seal(1.0, []byte(message))
	require.NoError(t, err)

	plain, err := lock.OpenAt(1.0, cipher)
	require.NoError(t, err)
	assert.Equal(t, []byte(message), plain)
}

func TestLock_OpenAtDifferentInstantYieldsGarbage(t *testing.T) {
	lock := NewLock(lockSystem(t), phase.PairAB, 0, 0.1)

	cipher, err := lock.Seal(1.0, []byte(message))
	require.NoError(t, err)

	// t=2 is also inside the window, but the absolute phases differ,
	// so the reconstructed keystream does not match.
	garbled, err := lock.OpenAt(2.0, cipher)
	require.NoError(t, err)
	assert.NotEqual(t, []byte(message), garbled)
}

func TestLock_RefusesOutsideWindow(t *testing.T) {
	lock := NewLock(lockSystem(t), phase.PairAB, 0, 0.1)

	_, err := lock.Seal(0.25, []byte(message))
	assert.ErrorIs(t, err, ErrPhaseLocked)

	cipher, err := lock.Seal(1.0, []byte(message))
	require.NoError(t, err)

	opened, err := lock.OpenAt(0.25, cipher)
	assert.ErrorIs(t, err, ErrPhaseLocked)
	assert.Nil(t, opened)
}

func TestLock_UnknownPairNeverPermits(t *testing.T) {
	lock := NewLock(lockSystem(t), phase.Pair("xy"), 0, 1)

	assert.False(t, lock.Permits(1.0))
	_, err := lock.OpenAt(1.0, []byte(message))
	assert.ErrorIs(t, err, ErrPhaseLocked)
}

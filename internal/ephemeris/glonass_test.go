package ephemeris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPropagateGlonassZeroDeltaIsIdentity is spec.md boundary 9: RK4
// propagation over Delta t = 0 returns the initial state exactly.
func TestPropagateGlonassZeroDeltaIsIdentity(t *testing.T) {
	eph := &GlonassEphemeris{
		TbSInWeek: 1000,
		PosKm:     [3]float64{7000, 8000, 9000},
		VelKmS:    [3]float64{1.1, -2.2, 3.3},
		AccKmS2:   [3]float64{1e-9, -1e-9, 2e-9},
	}

	pos := PropagateGlonass(eph, eph.TbSInWeek)
	assert.Equal(t, eph.PosKm[0]*1000, pos[0])
	assert.Equal(t, eph.PosKm[1]*1000, pos[1])
	assert.Equal(t, eph.PosKm[2]*1000, pos[2])
}

// TestPropagateGlonassShortStepIsSmooth sanity-checks that a short
// propagation doesn't blow up and moves the satellite roughly along its
// velocity vector.
func TestPropagateGlonassShortStepIsSmooth(t *testing.T) {
	eph := &GlonassEphemeris{
		TbSInWeek: 0,
		PosKm:     [3]float64{7000, 0, 0},
		VelKmS:    [3]float64{0, 3.9, 0},
		AccKmS2:   [3]float64{0, 0, 0},
	}

	pos := PropagateGlonass(eph, 1.0)
	assert.InDelta(t, 7000000.0, pos[0], 50000)
	assert.InDelta(t, 3900.0, pos[1], 200)
}

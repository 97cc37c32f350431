package solver

import (
	"math"
	"testing"
	"time"

	"github.com/bramburn/gnssproc/internal/gnss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tetrahedronEpoch(truePos [3]float64, biasM float64) *gnss.EpochObservation {
	dirs := [4][3]float64{
		{0, 0, 1},
		{0.9428, 0, -0.3333},
		{-0.4714, 0.8165, -0.3333},
		{-0.4714, -0.8165, -0.3333},
	}
	const radiusM = 2.2e7
	elev := 45.0

	sats := make(map[gnss.SatKey]*gnss.SatelliteState, len(dirs))
	for i, d := range dirs {
		n := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
		pos := [3]float64{
			truePos[0] + d[0]/n*radiusM,
			truePos[1] + d[1]/n*radiusM,
			truePos[2] + d[2]/n*radiusM,
		}
		rng := math.Sqrt(
			(pos[0]-truePos[0])*(pos[0]-truePos[0]) +
				(pos[1]-truePos[1])*(pos[1]-truePos[1]) +
				(pos[2]-truePos[2])*(pos[2]-truePos[2]),
		)

		key := gnss.SatKey{Sys: gnss.GPS, PRN: uint8(i + 1)}
		posCopy := pos
		sats[key] = &gnss.SatelliteState{
			Key:          key,
			ElevationDeg: &elev,
			PosECEF:      &posCopy,
			Signals: map[string]gnss.SignalObservation{
				"1C": {SignalID: "1C", PseudorangeM: rng + biasM, SNRdBHz: 40},
			},
		}
	}

	return &gnss.EpochObservation{
		UTC:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		GPSTowS:    345600,
		Satellites: sats,
	}
}

// TestSolveRecoversTetrahedronPosition is spec.md E5: four satellites on
// a regular tetrahedron around a true receiver position, pseudoranges
// equal to geometric range plus a common 1000m bias, should converge to
// the true position within 1mm and cdt within 1mm of the bias.
func TestSolveRecoversTetrahedronPosition(t *testing.T) {
	truePos := [3]float64{4000000.0, 3000000.0, 3500000.0}
	const biasM = 1000.0

	epoch := tetrahedronEpoch(truePos, biasM)

	cfg := DefaultConfig()
	cfg.CutoffElevationDeg = 0
	cfg.ApproxRecPosECEF = [3]float64{
		truePos[0] + 1000,
		truePos[1] - 1000,
		truePos[2] + 1000,
	}

	s := New(cfg)
	sol, ok := s.Solve(epoch)
	require.True(t, ok)
	assert.Equal(t, gnss.Fixed, sol.Status)

	dist := math.Sqrt(
		(sol.ECEF[0]-truePos[0])*(sol.ECEF[0]-truePos[0]) +
			(sol.ECEF[1]-truePos[1])*(sol.ECEF[1]-truePos[1]) +
			(sol.ECEF[2]-truePos[2])*(sol.ECEF[2]-truePos[2]),
	)
	assert.Less(t, dist, 1e-3)
	assert.InDelta(t, biasM, sol.CdtM, 1e-3)
	assert.Equal(t, 4, sol.NSat)
}

// TestSolveFiltersLowElevationAndInvalidPseudorange covers spec.md
// invariant 3: satellites below the elevation cutoff, or without a
// usable pseudorange, do not enter the normal equations.
func TestSolveFiltersLowElevationAndInvalidPseudorange(t *testing.T) {
	truePos := [3]float64{4000000.0, 3000000.0, 3500000.0}
	epoch := tetrahedronEpoch(truePos, 0)

	low := 5.0
	for _, sat := range epoch.Satellites {
		sat.ElevationDeg = &low
		break
	}

	cfg := DefaultConfig()
	cfg.CutoffElevationDeg = 10
	cfg.MinSatellites = 4

	s := New(cfg)
	_, ok := s.Solve(epoch)
	assert.False(t, ok, "fewer than MinSatellites usable observations should report degenerate")

	epoch = tetrahedronEpoch(truePos, 0)
	for _, sat := range epoch.Satellites {
		sat.Signals["1C"] = gnss.SignalObservation{SignalID: "1C", PseudorangeM: 0, SNRdBHz: 40}
		break
	}
	_, ok = New(cfg).Solve(epoch)
	assert.False(t, ok, "a satellite without a positive pseudorange should not count toward MinSatellites")
}

// TestSolveRequiresMinimumSatellites covers spec.md invariant 4.
func TestSolveRequiresMinimumSatellites(t *testing.T) {
	truePos := [3]float64{4000000.0, 3000000.0, 3500000.0}
	epoch := tetrahedronEpoch(truePos, 0)

	for key := range epoch.Satellites {
		delete(epoch.Satellites, key)
		break
	}

	cfg := DefaultConfig()
	cfg.CutoffElevationDeg = 0
	cfg.MinSatellites = 4

	s := New(cfg)
	_, ok := s.Solve(epoch)
	assert.False(t, ok)
}

func TestWeightModes(t *testing.T) {
	assert.Equal(t, 1.0, weight(WeightEqual, 5, 20))
	assert.Greater(t, weight(WeightElevation, 10, 40), weight(WeightElevation, 80, 40))
	assert.Equal(t, 0.25, weight(WeightSNR, 45, 20))
	assert.Equal(t, 1.0, weight(WeightSNR, 45, 50))
}

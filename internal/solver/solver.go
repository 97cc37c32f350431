// Package solver implements the weighted iterative least-squares
// Single-Point-Positioning solver and DOP computation described in
// spec.md 4.8.
package solver

import (
	"math"

	"github.com/bramburn/gnssproc/internal/geometry"
	"github.com/bramburn/gnssproc/internal/gnss"
)

// WeightMode selects how per-satellite observation weights are derived.
type WeightMode string

const (
	WeightEqual     WeightMode = "equal"
	WeightElevation WeightMode = "elevation"
	WeightSNR       WeightMode = "snr"
)

const (
	maxIterations        = 10
	convergenceThreshold = 1e-4 // meters
	tikhonovLambda       = 1e-6
)

// Config carries the solver options named in spec.md 6.
type Config struct {
	MinSatellites      int
	CutoffElevationDeg float64
	WeightMode         WeightMode
	ApproxRecPosECEF   [3]float64
}

// DefaultConfig returns the spec-mandated defaults.
func DefaultConfig() Config {
	return Config{
		MinSatellites:      4,
		CutoffElevationDeg: 10,
		WeightMode:         WeightEqual,
		ApproxRecPosECEF:   [3]float64{4e6, 3e6, 5e6},
	}
}

// observation is one satellite's contribution to the normal equations.
type observation struct {
	key       gnss.SatKey
	satPos    [3]float64
	pseudo    float64
	elevation float64
	snr       float64
}

// Solver runs the WLS-SPP iteration described in spec.md 4.8, reusing
// the previous fix as the next epoch's initial guess the way a real-time
// receiver does.
type Solver struct {
	cfg          Config
	lastPosECEF  [3]float64
	haveLast     bool
}

// New creates a Solver with the given configuration.
func New(cfg Config) *Solver {
	return &Solver{cfg: cfg}
}

// SetApproxPosition overwrites the configured initial-guess position,
// e.g. when a station-coordinate message (1005/1006) arrives.
func (s *Solver) SetApproxPosition(ecef [3]float64) {
	s.cfg.ApproxRecPosECEF = ecef
}

// Solve runs one WLS-SPP fix for a merged epoch. It returns ok=false
// (spec.md 7, SolverDegenerate) when fewer than MinSatellites
// observations qualify or the normal equations are singular.
func (s *Solver) Solve(e *gnss.EpochObservation) (gnss.PositioningSolution, bool) {
	obs := s.extract(e)
	if len(obs) < s.cfg.MinSatellites {
		return gnss.PositioningSolution{}, false
	}

	x0 := s.cfg.ApproxRecPosECEF
	if s.haveLast {
		x0 = s.lastPosECEF
	}
	state := [4]float64{x0[0], x0[1], x0[2], 0}

	var (
		A         *mat
		b         []float64
		w         []float64
		converged bool
	)

	for iter := 0; iter < maxIterations; iter++ {
		n := len(obs)
		A = newMat(n, 4)
		b = make([]float64, n)
		w = make([]float64, n)

		for i, o := range obs {
			d := [3]float64{
				o.satPos[0] - state[0],
				o.satPos[1] - state[1],
				o.satPos[2] - state[2],
			}
			rangeHat := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
			if rangeHat == 0 {
				rangeHat = 1e-9
			}

			A.set(i, 0, -d[0]/rangeHat)
			A.set(i, 1, -d[1]/rangeHat)
			A.set(i, 2, -d[2]/rangeHat)
			A.set(i, 3, 1)

			b[i] = o.pseudo - (rangeHat + state[3])
			w[i] = weight(s.cfg.WeightMode, o.elevation, o.snr)
		}

		dx, ok := normalSolve(A, b, w)
		if !ok {
			return gnss.PositioningSolution{}, false
		}

		for i := 0; i < 4; i++ {
			state[i] += dx[i]
		}

		deltaPos := math.Sqrt(dx[0]*dx[0] + dx[1]*dx[1] + dx[2]*dx[2])
		if deltaPos < convergenceThreshold {
			converged = true
			break
		}
	}

	n := len(obs)
	status := gnss.NoFix
	if converged {
		status = gnss.Fixed
	} else if n >= s.cfg.MinSatellites {
		status = gnss.Uncertain
	}

	sol := s.buildSolution(e, obs, state, A, b, w, status)

	s.lastPosECEF = [3]float64{state[0], state[1], state[2]}
	s.haveLast = true

	return sol, true
}

// extract filters the epoch's satellites per spec.md 4.8/4.3: must have
// a computed ECEF position, elevation at or above cutoff, and a
// positive pseudorange.
func (s *Solver) extract(e *gnss.EpochObservation) []observation {
	var out []observation
	for key, sat := range e.Satellites {
		if sat.PosECEF == nil || sat.ElevationDeg == nil {
			continue
		}
		if *sat.ElevationDeg < s.cfg.CutoffElevationDeg {
			continue
		}

		var best *gnss.SignalObservation
		var bestSNR float64
		for _, sig := range sat.Signals {
			sig := sig
			if sig.PseudorangeM > 0 {
				if best == nil || sig.SNRdBHz > bestSNR {
					best = &sig
					bestSNR = sig.SNRdBHz
				}
			}
		}
		if best == nil {
			continue
		}

		out = append(out, observation{
			key:       key,
			satPos:    *sat.PosECEF,
			pseudo:    best.PseudorangeM,
			elevation: *sat.ElevationDeg,
			snr:       best.SNRdBHz,
		})
	}
	return out
}

func weight(mode WeightMode, elevationDeg, snr float64) float64 {
	switch mode {
	case WeightElevation:
		elRad := elevationDeg * math.Pi / 180
		s := math.Sin(elRad)
		if s <= 0 {
			return 1
		}
		return 1 / (s * s)
	case WeightSNR:
		switch {
		case snr <= 30:
			return 0.25
		case snr >= 45:
			return 1.0
		default:
			return 0.25 + 0.75*(snr-30)/15
		}
	default:
		return 1
	}
}

// normalSolve builds and solves (A^T W A + lambda I) dx = A^T W b.
func normalSolve(A *mat, b []float64, w []float64) ([4]float64, bool) {
	at := A.transpose()
	atw := at.mulDiagRight(w)
	atwa := atw.mul(A)
	atwa.addScaledIdentity(tikhonovLambda)

	inv, ok := atwa.invert()
	if !ok {
		return [4]float64{}, false
	}

	bMat := newMat(len(b), 1)
	for i, v := range b {
		bMat.set(i, 0, v)
	}
	atwb := atw.mul(bMat)
	dxMat := inv.mul(atwb)

	var dx [4]float64
	for i := 0; i < 4; i++ {
		dx[i] = dxMat.at(i, 0)
	}
	return dx, true
}

func (s *Solver) buildSolution(e *gnss.EpochObservation, obs []observation, state [4]float64, A *mat, b, w []float64, status gnss.SolutionStatus) gnss.PositioningSolution {
	n := len(obs)
	ecef := [3]float64{state[0], state[1], state[2]}
	lat, lon, h := geometry.ECEFToGeodetic(ecef[0], ecef[1], ecef[2])

	var bwb float64
	var sumSq, maxAbs float64
	bySat := make(map[gnss.SatKey]float64, n)
	for i, o := range obs {
		bwb += b[i] * w[i] * b[i]
		sumSq += b[i] * b[i]
		if v := math.Abs(b[i]); v > maxAbs {
			maxAbs = v
		}
		bySat[o.key] = b[i]
	}

	var sigma2 float64
	if n > 4 {
		sigma2 = bwb / float64(n-4)
	}

	sol := gnss.PositioningSolution{
		UTC:     e.UTC,
		TowS:    e.GPSTowS,
		ECEF:    ecef,
		LatDeg:  lat * 180 / math.Pi,
		LonDeg:  lon * 180 / math.Pi,
		HeightM: h,
		CdtM:    state[3],
		NSat:    n,
		Status:  status,
		Residuals: gnss.ResidualsSummary{
			RMS:         math.Sqrt(sumSq / float64(maxInt(n, 1))),
			Max:         maxAbs,
			BySatellite: bySat,
		},
	}

	at := A.transpose()
	atw := at.mulDiagRight(w)
	atwa := atw.mul(A)
	atwa.addScaledIdentity(tikhonovLambda)
	if inv, ok := atwa.invert(); ok && sigma2 > 0 {
		// Covariance Sigma = sigma^2 * (A^T W A + lambda I)^-1; the
		// unit-weight cofactor Q = Sigma / sigma^2 = inv itself.
		sol.StdNEU = stdNEU(inv, lat, lon)
		sol.StdCdtM = math.Sqrt(sigma2 * inv.at(3, 3))

		sol.GDOP = math.Sqrt(inv.at(0, 0) + inv.at(1, 1) + inv.at(2, 2) + inv.at(3, 3))
		sol.PDOP = math.Sqrt(inv.at(0, 0) + inv.at(1, 1) + inv.at(2, 2))
		sol.TDOP = math.Sqrt(inv.at(3, 3))

		hv, vv := enuDOP(inv, lat, lon)
		sol.HDOP = hv
		sol.VDOP = vv
	}

	return sol
}

// enuDOP rotates the position sub-block of the cofactor matrix into ENU
// and returns HDOP/VDOP per spec.md 4.8.
func enuDOP(q *mat, lat, lon float64) (hdop, vdop float64) {
	r := geometry.RotECEFToENU(lat, lon)

	var qPos [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			qPos[i][j] = q.at(i, j)
		}
	}

	// Qenu = R * Qpos * R^T
	var rq [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += r[i][k] * qPos[k][j]
			}
			rq[i][j] = sum
		}
	}
	var qenu [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += rq[i][k] * r[j][k]
			}
			qenu[i][j] = sum
		}
	}

	hdop = math.Sqrt(qenu[0][0] + qenu[1][1])
	vdop = math.Sqrt(qenu[2][2])
	return
}

// stdNEU rotates the position sub-block of the cofactor matrix into
// the local ENU frame, the same way enuDOP does, and returns the
// per-axis standard deviations in north/east/up order.
func stdNEU(q *mat, lat, lon float64) [3]float64 {
	r := geometry.RotECEFToENU(lat, lon)

	var qPos [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			qPos[i][j] = q.at(i, j)
		}
	}

	var rq [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += r[i][k] * qPos[k][j]
			}
			rq[i][j] = sum
		}
	}
	var qenu [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += rq[i][k] * r[j][k]
			}
			qenu[i][j] = sum
		}
	}

	return [3]float64{
		math.Sqrt(abs(qenu[1][1])), // N
		math.Sqrt(abs(qenu[0][0])), // E
		math.Sqrt(abs(qenu[2][2])), // U
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

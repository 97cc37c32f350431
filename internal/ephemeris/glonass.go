package ephemeris

import "math"

// GLONASS PZ-90 constants (spec.md 4.4.2).
const (
	glonassGM    = 3.9860044e14
	glonassC20   = -1082625.75e-9
	glonassAEq   = 6378136.0
	glonassOmega = 7.292115e-5
)

// glonassState is the six-element position/velocity state integrated by
// the RK4 propagator, in meters and meters/second.
type glonassState struct {
	pos [3]float64
	vel [3]float64
}

// glonassAccel evaluates the acceleration model in spec.md 4.4.2 step 3:
// central gravity, J2 oblateness, centrifugal/Coriolis in the rotating
// PZ-90 frame, plus the ephemeris's own constant lunisolar term.
func glonassAccel(s glonassState, lunisolar [3]float64) [3]float64 {
	x, y, z := s.pos[0], s.pos[1], s.pos[2]
	vx, vy := s.vel[0], s.vel[1]

	r2 := x*x + y*y + z*z
	r := math.Sqrt(r2)
	r3 := r2 * r
	r5 := r3 * r2

	gravX := -glonassGM * x / r3
	gravY := -glonassGM * y / r3
	gravZ := -glonassGM * z / r3

	zr2 := (z * z) / r2
	j2Factor := 1.5 * glonassC20 * glonassGM * glonassAEq * glonassAEq / r5

	j2X := j2Factor * x * (1 - 5*zr2)
	j2Y := j2Factor * y * (1 - 5*zr2)
	j2Z := j2Factor * z * (3 - 5*zr2)

	cx := glonassOmega*glonassOmega*x + 2*glonassOmega*vy
	cy := glonassOmega*glonassOmega*y - 2*glonassOmega*vx

	return [3]float64{
		gravX + j2X + cx + lunisolar[0],
		gravY + j2Y + cy + lunisolar[1],
		gravZ + j2Z + lunisolar[2],
	}
}

func glonassDeriv(s glonassState, lunisolar [3]float64) glonassState {
	a := glonassAccel(s, lunisolar)
	return glonassState{pos: s.vel, vel: a}
}

func addState(a, b glonassState, scale float64) glonassState {
	var out glonassState
	for i := 0; i < 3; i++ {
		out.pos[i] = a.pos[i] + scale*b.pos[i]
		out.vel[i] = a.vel[i] + scale*b.vel[i]
	}
	return out
}

// rk4Step advances state s by dt seconds using classical 4th-order
// Runge-Kutta integration of glonassDeriv.
func rk4Step(s glonassState, dt float64, lunisolar [3]float64) glonassState {
	k1 := glonassDeriv(s, lunisolar)
	k2 := glonassDeriv(addState(s, k1, dt/2), lunisolar)
	k3 := glonassDeriv(addState(s, k2, dt/2), lunisolar)
	k4 := glonassDeriv(addState(s, k3, dt), lunisolar)

	var out glonassState
	for i := 0; i < 3; i++ {
		out.pos[i] = s.pos[i] + (dt/6)*(k1.pos[i]+2*k2.pos[i]+2*k3.pos[i]+k4.pos[i])
		out.vel[i] = s.vel[i] + (dt/6)*(k1.vel[i]+2*k2.vel[i]+2*k3.vel[i]+k4.vel[i])
	}
	return out
}

// PropagateGlonass integrates a GLONASS state-vector ephemeris from its
// reference time Tb to tTarget (both seconds-in-week) using RK4 with a
// 30-second nominal step (spec.md 4.4.2). Position is returned in meters,
// PZ-90 treated interchangeably with WGS84 within SPP accuracy.
func PropagateGlonass(eph *GlonassEphemeris, tTarget float64) [3]float64 {
	s := glonassState{
		pos: [3]float64{eph.PosKm[0] * 1000, eph.PosKm[1] * 1000, eph.PosKm[2] * 1000},
		vel: [3]float64{eph.VelKmS[0] * 1000, eph.VelKmS[1] * 1000, eph.VelKmS[2] * 1000},
	}
	lunisolar := [3]float64{
		eph.AccKmS2[0] * 1000,
		eph.AccKmS2[1] * 1000,
		eph.AccKmS2[2] * 1000,
	}

	remaining := tTarget - eph.TbSInWeek
	if remaining == 0 {
		return s.pos
	}

	const nominalStep = 30.0
	step := nominalStep
	if remaining < 0 {
		step = -nominalStep
	}

	for remaining != 0 {
		h := step
		if math.Abs(remaining) < math.Abs(step) {
			h = remaining
		}
		s = rk4Step(s, h, lunisolar)
		remaining -= h
	}

	return s.pos
}

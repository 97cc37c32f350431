// Package ephemeris holds the broadcast orbit records decoded from RTCM
// message types 1019/1020/1042/1045/1046, the cache that keeps the
// latest record per satellite (spec.md 4.3), and the two orbit
// propagators (spec.md 4.4).
package ephemeris

// KeplerEphemeris is the broadcast Keplerian record shared by GPS,
// Galileo and BeiDou (spec.md 3, "Keplerian ephemeris"). All angular
// fields are stored in radians: the decoder multiplies broadcast
// semi-circle values by Pi before constructing this struct.
type KeplerEphemeris struct {
	Sys  byte
	PRN  uint8
	Week int
	ToeS float64
	TocS float64

	SqrtA    float64
	Ecc      float64
	M0       float64
	Omega    float64
	I0       float64
	Omega0   float64
	DeltaN   float64
	OmegaDot float64
	IDOT     float64

	Cuc float64
	Cus float64
	Crc float64
	Crs float64
	Cic float64
	Cis float64

	Af0 float64
	Af1 float64
	Af2 float64

	Health       int
	IodeOrIodnav int
}

// RefTime is the reference-time field used by the cache's overwrite
// policy: Toe for Keplerian ephemerides.
func (e *KeplerEphemeris) RefTime() float64 { return e.ToeS }

// GlonassEphemeris is the state-vector record broadcast by RTCM message
// 1020 (spec.md 3, "GLONASS ephemeris").
type GlonassEphemeris struct {
	PRN          uint8
	TbSInWeek    float64
	TkSInWeek    float64
	FreqChannel  int8 // FDMA channel, in [-7, +6]
	PosKm        [3]float64
	VelKmS       [3]float64
	AccKmS2      [3]float64
	TauN         float64
	GammaN       float64
	Health       int
}

// RefTime is the reference-time field used by the cache's overwrite
// policy: Tb for GLONASS.
func (e *GlonassEphemeris) RefTime() float64 { return e.TbSInWeek }

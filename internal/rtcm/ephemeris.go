package rtcm

import (
	"math"

	"github.com/bramburn/gnssproc/internal/ephemeris"
)

// decodeOrbitPart1 reads the first half of the Keplerian orbit terms
// shared by the 1019/1042/1045/1046 message bodies, up to sqrtA. The
// system-specific reference time toe sits between this half and
// decodeOrbitPart2, so callers read it themselves in between.
func decodeOrbitPart1(r *bitReader) (crs, deltaN, m0, cuc, ecc, cus, sqrtA float64) {
	crs = scale(r.int(16), 5)
	deltaN = semicircle(r.int(16), 43)
	m0 = semicircle(r.int(32), 31)
	cuc = scale(r.int(16), 29)
	ecc = scaleU(r.uint(32), 33)
	cus = scale(r.int(16), 29)
	sqrtA = scaleU(r.uint(32), 19)
	return
}

// decodeOrbitPart2 reads the second half of the Keplerian orbit terms,
// from Cic through OmegaDot.
func decodeOrbitPart2(r *bitReader) (cic, omega0, cis, i0, crc, omega, omegaDot float64) {
	cic = scale(r.int(16), 29)
	omega0 = semicircle(r.int(32), 31)
	cis = scale(r.int(16), 29)
	i0 = semicircle(r.int(32), 31)
	crc = scale(r.int(16), 5)
	omega = semicircle(r.int(32), 31)
	omegaDot = semicircle(r.int(24), 43)
	return
}

func scale(v int64, shift uint) float64   { return float64(v) / math.Pow(2, float64(shift)) }
func scaleU(v uint64, shift uint) float64 { return float64(v) / math.Pow(2, float64(shift)) }
func semicircle(v int64, shift uint) float64 {
	return scale(v, shift) * math.Pi
}

// DecodeGPSEphemeris decodes an RTCM message 1019 payload into a GPS
// Keplerian ephemeris (spec.md 4.6). Field order follows RTCM 10403.x
// 1019: week/URA/code-on-L2, IDOT, IODE, toc, af2, af1, af0, IODC, then
// the shared orbit terms split around toe.
func DecodeGPSEphemeris(payload []byte) *ephemeris.KeplerEphemeris {
	r := newBitReader(payload)
	r.skip(12) // message number

	prn := uint8(r.uint(6))
	week := int(r.uint(10)) + 2048
	r.skip(4) // URA
	r.skip(2) // code on L2

	idot := semicircle(r.int(14), 43)
	iode := int(r.uint(8))
	toc := float64(r.uint(16)) * 16
	af2 := scale(r.int(8), 55)
	af1 := scale(r.int(16), 43)
	af0 := scale(r.int(22), 31)
	r.skip(10) // IODC

	crs, deltaN, m0, cuc, ecc, cus, sqrtA := decodeOrbitPart1(r)
	toe := float64(r.uint(16)) * 16
	cic, omega0, cis, i0, crc, omega, omegaDot := decodeOrbitPart2(r)

	tgd := scale(r.int(8), 31)
	health := int(r.uint(6))
	r.skip(1) // L2 P data flag
	r.skip(1) // fit interval
	_ = tgd

	return &ephemeris.KeplerEphemeris{
		Sys: 'G', PRN: prn, Week: week,
		ToeS: toe, TocS: toc,
		SqrtA: sqrtA, Ecc: ecc, M0: m0, Omega: omega,
		I0: i0, Omega0: omega0, DeltaN: deltaN,
		OmegaDot: omegaDot, IDOT: idot,
		Cuc: cuc, Cus: cus, Crc: crc, Crs: crs,
		Cic: cic, Cis: cis,
		Af0: af0, Af1: af1, Af2: af2,
		Health: health, IodeOrIodnav: iode,
	}
}

// DecodeGalileoEphemeris decodes an RTCM message 1045 (F/NAV) or 1046
// (I/NAV) payload (spec.md 4.6: week = gal_week + 1024). Field order
// follows RTCM 10403.x 1045/1046: week/IODnav/SISA, IDOT, toc, af2, af1,
// af0, then the shared orbit terms split around toe, then BGD.
func DecodeGalileoEphemeris(payload []byte) *ephemeris.KeplerEphemeris {
	r := newBitReader(payload)
	r.skip(12)

	prn := uint8(r.uint(6))
	week := int(r.uint(12)) + 1024
	iodnav := int(r.uint(10))
	r.skip(8) // SIS accuracy index

	idot := semicircle(r.int(14), 43)
	toc := float64(r.uint(14)) * 60
	af2 := scale(r.int(6), 59)
	af1 := scale(r.int(21), 46)
	af0 := scale(r.int(31), 34)

	crs, deltaN, m0, cuc, ecc, cus, sqrtA := decodeOrbitPart1(r)
	toe := float64(r.uint(14)) * 60
	cic, omega0, cis, i0, crc, omega, omegaDot := decodeOrbitPart2(r)

	bgdE1E5a := scale(r.int(10), 32)
	_ = bgdE1E5a
	r.skip(2) // E5b/E1 signal health / validity (simplified)
	health := 0

	return &ephemeris.KeplerEphemeris{
		Sys: 'E', PRN: prn, Week: week,
		ToeS: toe, TocS: toc,
		SqrtA: sqrtA, Ecc: ecc, M0: m0, Omega: omega,
		I0: i0, Omega0: omega0, DeltaN: deltaN,
		OmegaDot: omegaDot, IDOT: idot,
		Cuc: cuc, Cus: cus, Crc: crc, Crs: crs,
		Cic: cic, Cis: cis,
		Af0: af0, Af1: af1, Af2: af2,
		Health: health, IodeOrIodnav: iodnav,
	}
}

// DecodeBDSEphemeris decodes an RTCM message 1042 payload (spec.md 4.6:
// week = bds_week + 1356, orbit angles in semi-circles as with GPS).
// Field order follows RTCM 10403.x 1042: week/URAI, IDOT, AODE, toc,
// clock terms, AODC, then the shared orbit terms split around toe.
func DecodeBDSEphemeris(payload []byte) *ephemeris.KeplerEphemeris {
	r := newBitReader(payload)
	r.skip(12)

	prn := uint8(r.uint(6))
	week := int(r.uint(13)) + 1356
	r.skip(4) // URAI

	idot := semicircle(r.int(14), 43)
	aode := int(r.uint(5))
	toc := float64(r.uint(17)) * 8
	af2 := scale(r.int(8), 55)
	af1 := scale(r.int(16), 43)
	af0 := scale(r.int(22), 31)
	r.skip(5) // AODC

	crs, deltaN, m0, cuc, ecc, cus, sqrtA := decodeOrbitPart1(r)
	toe := float64(r.uint(17)) * 8
	cic, omega0, cis, i0, crc, omega, omegaDot := decodeOrbitPart2(r)

	tgd1 := scale(r.int(10), 10)
	tgd2 := scale(r.int(10), 10)
	_ = tgd1
	_ = tgd2
	health := int(r.uint(1))

	return &ephemeris.KeplerEphemeris{
		Sys: 'C', PRN: prn, Week: week,
		ToeS: toe, TocS: toc,
		SqrtA: sqrtA, Ecc: ecc, M0: m0, Omega: omega,
		I0: i0, Omega0: omega0, DeltaN: deltaN,
		OmegaDot: omegaDot, IDOT: idot,
		Cuc: cuc, Cus: cus, Crc: crc, Crs: crs,
		Cic: cic, Cis: cis,
		Af0: af0, Af1: af1, Af2: af2,
		Health: health, IodeOrIodnav: aode,
	}
}

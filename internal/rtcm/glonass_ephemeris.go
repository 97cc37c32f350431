package rtcm

import "github.com/bramburn/gnssproc/internal/ephemeris"

// DecodeGlonassEphemeris decodes an RTCM message 1020 payload into a
// GLONASS state-vector ephemeris (spec.md 4.6). The tk/tb time fields
// follow the bit layout used by the reference station software this
// engine replaces: tb is a 15-minute index into the UTC day minus the
// 3-hour Moscow offset, tk packs hhhhh:mmmmmm:s (30s resolution) the
// same way.
func DecodeGlonassEphemeris(payload []byte) *ephemeris.GlonassEphemeris {
	r := newBitReader(payload)
	r.skip(12) // message number

	prn := uint8(r.uint(6))
	freqChannelRaw := int(r.uint(5))
	r.skip(1) // almanac health availability indicator
	r.skip(2) // P1
	tkRaw := r.uint(12)
	r.skip(1) // MSB of Bn (health)
	r.skip(1) // P2
	tbRaw := r.uint(7)

	velX := scale(r.int(24), 20)
	posX := scale(r.int(27), 11)
	accX := scale(r.int(5), 30)
	velY := scale(r.int(24), 20)
	posY := scale(r.int(27), 11)
	accY := scale(r.int(5), 30)
	velZ := scale(r.int(24), 20)
	posZ := scale(r.int(27), 11)
	accZ := scale(r.int(5), 30)

	r.skip(1) // P3
	gammaN := scale(r.int(11), 40)
	r.skip(2) // P, ln(3rd string)
	tauN := scale(r.int(22), 30)

	health := int(r.uint(1))

	tkH := (tkRaw >> 7) & 0x1F
	tkM := (tkRaw >> 1) & 0x3F
	tkS := (tkRaw & 0x01) * 30
	tkSeconds := float64(tkH)*3600 + float64(tkM)*60 + float64(tkS) - 3*3600

	tbSeconds := float64(tbRaw)*15*60 - 3*3600

	return &ephemeris.GlonassEphemeris{
		PRN:         prn,
		TbSInWeek:   tbSeconds,
		TkSInWeek:   tkSeconds,
		FreqChannel: int8(freqChannelRaw - 7),
		PosKm:       [3]float64{posX, posY, posZ},
		VelKmS:      [3]float64{velX, velY, velZ},
		AccKmS2:     [3]float64{accX, accY, accZ},
		TauN:        tauN,
		GammaN:      gammaN,
		Health:      health,
	}
}

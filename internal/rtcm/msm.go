package rtcm

import (
	"time"

	"github.com/bramburn/gnssproc/internal/ephemeris"
	"github.com/bramburn/gnssproc/internal/geometry"
	"github.com/bramburn/gnssproc/internal/gnss"
)

const speedOfLight = 299792458.0

// msmSystemForType maps RTCM message types 1077/1087/1097/1117/1127
// (MSM7, the only resolution this engine decodes per spec.md 4.6) to
// their GNSS constellation letter.
func msmSystemForType(msgType int) (byte, bool) {
	switch msgType {
	case 1077:
		return 'G', true
	case 1087:
		return 'R', true
	case 1097:
		return 'E', true
	case 1117:
		return 'J', true
	case 1127:
		return 'C', true
	}
	return 0, false
}

// MSMContext carries the state an MSM7 decode needs beyond the raw
// payload: the ephemeris cache to look up newly-seen satellites, the
// current approximate receiver position for azimuth/elevation, and the
// GPS week/day used to convert GLONASS time-of-day into time-of-week
// (spec.md 4.6).
type MSMContext struct {
	Cache          *ephemeris.Cache
	ApproxRecPos   [3]float64
	HaveApproxPos  bool
	GPSWeek        int
	GPSDayOfWeek   int
}

// gpsEpoch is the origin of GPS week numbering, 1980-01-06 00:00:00 UTC.
var gpsEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

// utcFromGPS derives the UTC instant for a GPS week and time-of-week in
// seconds, per spec.md 3's requirement that utc_datetime be computed
// from the current GPS week and the decoded TOW (leap seconds are out
// of scope per spec.md 1's non-goals).
func utcFromGPS(week int, towS float64) time.Time {
	return gpsEpoch.Add(time.Duration(week) * 7 * 24 * time.Hour).Add(time.Duration(towS * float64(time.Second)))
}

// DecodeMSM7 decodes an RTCM MSM7 payload (1077/1087/1097/1117/1127)
// into an epoch fragment (spec.md 4.6). The fragment's UTC time is
// derived from ctx.GPSWeek and the decoded time-of-week, not from the
// caller's wall clock.
func DecodeMSM7(msgType int, payload []byte, ctx MSMContext) (*gnss.EpochObservation, bool) {
	sys, ok := msmSystemForType(msgType)
	if !ok {
		return nil, false
	}

	r := newBitReader(payload)
	r.skip(12) // message number
	r.skip(12) // reference station ID

	rawEpochTime := r.uint(30)
	epochTimeS := float64(rawEpochTime) / 1000.0
	if sys == 'R' {
		epochTimeS = epochTimeS - 3*3600 + float64(ctx.GPSDayOfWeek)*24*3600
	}

	r.skip(1) // multiple message bit
	r.skip(3) // IODS
	r.skip(7) // reserved
	r.skip(2) // clock steering
	r.skip(2) // external clock
	r.skip(1) // smoothing indicator
	r.skip(3) // smoothing interval

	const satMaskBits = 64
	const sigMaskBits = 32

	satMask := r.uint(satMaskBits)
	sigMask := r.uint(sigMaskBits)

	var satPRNs []uint8
	for i := 0; i < satMaskBits; i++ {
		if satMask&(uint64(1)<<uint(satMaskBits-1-i)) != 0 {
			satPRNs = append(satPRNs, uint8(i+1))
		}
	}

	var sigIDs []string
	for j := 0; j < sigMaskBits; j++ {
		if sigMask&(uint64(1)<<uint(sigMaskBits-1-j)) != 0 {
			sigIDs = append(sigIDs, msmSignalID(sys, j))
		}
	}

	numSat := len(satPRNs)
	numSig := len(sigIDs)
	numCellBits := numSat * numSig

	cellMask := make([]bool, numCellBits)
	for i := 0; i < numCellBits; i++ {
		cellMask[i] = r.uint(1) == 1
	}

	roughRangeMS := make([]int64, numSat)
	roughRangeExt := make([]int64, numSat)
	roughRateMps := make([]int64, numSat)

	for i := 0; i < numSat; i++ {
		roughRangeMS[i] = int64(r.uint(8))
	}
	for i := 0; i < numSat; i++ {
		r.skip(4) // DF419 extended satellite info (MSM7 only)
	}
	for i := 0; i < numSat; i++ {
		roughRangeExt[i] = int64(r.uint(10))
	}
	for i := 0; i < numSat; i++ {
		roughRateMps[i] = r.int(14)
	}

	type cell struct {
		satIdx, sigIdx int
	}
	var cells []cell
	for s := 0; s < numSat; s++ {
		for g := 0; g < numSig; g++ {
			if cellMask[s*numSig+g] {
				cells = append(cells, cell{satIdx: s, sigIdx: g})
			}
		}
	}

	finePseudorange := make([]int64, len(cells))
	finePhase := make([]int64, len(cells))
	lockTime := make([]uint32, len(cells))
	halfCycle := make([]uint8, len(cells))
	cnr := make([]uint32, len(cells))
	fineRate := make([]int64, len(cells))

	for i := range cells {
		finePseudorange[i] = r.int(20)
	}
	for i := range cells {
		finePhase[i] = r.int(24)
	}
	for i := range cells {
		lockTime[i] = uint32(r.uint(10))
	}
	for i := range cells {
		halfCycle[i] = uint8(r.uint(1))
	}
	for i := range cells {
		cnr[i] = uint32(r.uint(10))
	}
	for i := range cells {
		fineRate[i] = r.int(15)
	}

	epoch := &gnss.EpochObservation{
		GPSTowS:    epochTimeS,
		UTC:        utcFromGPS(ctx.GPSWeek, epochTimeS),
		Satellites: make(map[gnss.SatKey]*gnss.SatelliteState, numSat),
	}

	for i, cellEntry := range cells {
		prn := satPRNs[cellEntry.satIdx]
		key := gnss.SatKey{Sys: gnss.System(sys), PRN: prn}

		sat, exists := epoch.Satellites[key]
		if !exists {
			sat = &gnss.SatelliteState{Key: key, Signals: map[string]gnss.SignalObservation{}}
			epoch.Satellites[key] = sat

			var pos [3]float64
			var havePos bool

			if glo, ok := ctx.Cache.Glonass(key); ok {
				pos = ephemeris.PropagateGlonass(&glo, epochTimeS)
				havePos = true
			} else if kep, ok := ctx.Cache.Kepler(key); ok {
				omegaE := earthRotationRate(sys)
				pos = ephemeris.PropagateKepler(&kep, epochTimeS, omegaE)
				havePos = true
			}

			if havePos {
				posCopy := pos
				sat.PosECEF = &posCopy
				if ctx.HaveApproxPos {
					az, el := geometry.AzimuthElevation(ctx.ApproxRecPos, pos)
					sat.AzimuthDeg = &az
					sat.ElevationDeg = &el
				}
			}
		}

		rangeMS := roughRangeMS[cellEntry.satIdx]
		rangeExt := roughRangeExt[cellEntry.satIdx]
		rateRough := roughRateMps[cellEntry.satIdx]

		var roughRangeM float64
		haveRoughRange := rangeMS != 255
		if haveRoughRange {
			roughRangeM = float64(rangeMS)*speedOfLight/1000.0 + scaleU(uint64(rangeExt), 10)*speedOfLight/1000.0
		}
		haveRoughRate := rateRough != -8192

		var fcn int8
		if glo, ok := ctx.Cache.Glonass(key); ok {
			fcn = glo.FreqChannel
		}
		freq := signalFrequency(sys, sigIDs[cellEntry.sigIdx], fcn)

		var obs gnss.SignalObservation
		obs.SignalID = sigIDs[cellEntry.sigIdx]
		obs.LockTime = lockTime[i]
		obs.HalfCycleFlag = halfCycle[i]
		obs.SNRdBHz = float64(cnr[i]) / 16.0

		if haveRoughRange && finePseudorange[i] != -524288 {
			obs.PseudorangeM = roughRangeM + scale(finePseudorange[i], 29)*speedOfLight/1000.0
		}
		if haveRoughRange && finePhase[i] != -8388608 && freq > 0 {
			phaseM := roughRangeM + scale(finePhase[i], 31)*speedOfLight/1000.0
			obs.CarrierPhaseCyc = phaseM * freq / speedOfLight
		}
		if haveRoughRate && fineRate[i] != -16384 && freq > 0 {
			totalRate := float64(rateRough) + float64(fineRate[i])*1e-4
			obs.DopplerHz = -totalRate * freq / speedOfLight
		}

		if obs.SNRdBHz == 0 && obs.CarrierPhaseCyc == 0 {
			continue // spec 4.6: drop cells with no usable signal
		}
		sat.Signals[obs.SignalID] = obs
	}

	return epoch, true
}

// earthRotationRate returns the Earth rotation rate used for Keplerian
// propagation: the WGS84 value for every system, BeiDou included.
func earthRotationRate(sys byte) float64 {
	return ephemeris.EarthRotationRateWGS84
}

package rtcm

import (
	"time"

	"github.com/bramburn/gnssproc/internal/gnss"
)

// DecodeStationPosition decodes an RTCM message 1005 or 1006 payload
// into the reference station's ECEF position (spec.md 4.6), used to
// seed the solver's approximate receiver position.
func DecodeStationPosition(msgType int, payload []byte, receivedAt time.Time) gnss.StationPosition {
	r := newBitReader(payload)
	r.skip(12) // message number
	r.skip(12) // reference station ID
	r.skip(6)  // ITRF realization year
	r.skip(1)  // GPS indicator
	r.skip(1)  // GLONASS indicator
	r.skip(1)  // Galileo indicator
	r.skip(1)  // reference station indicator

	x := scale(r.int(38), 4)
	r.skip(1) // single receiver oscillator indicator
	r.skip(1) // reserved
	y := scale(r.int(38), 4)
	r.skip(2) // quarter cycle indicator
	z := scale(r.int(38), 4)

	return gnss.StationPosition{
		ECEF:        [3]float64{x, y, z},
		MessageType: msgType,
		ReceivedAt:  receivedAt,
	}
}

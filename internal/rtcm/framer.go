// Package rtcm implements the RTCM 3.x framer and message decoder
// described in spec.md 4.1 and 4.6: preamble scan, CRC-24Q verification,
// and per-type decode into ephemeris records or MSM7 epoch fragments.
package rtcm

const preamble = 0xD3

// Frame is one CRC-verified RTCM message.
type Frame struct {
	MessageType int
	Raw         []byte // full frame: 3-byte header + payload + 3-byte CRC
	Payload     []byte // payload only, for type-specific decode
}

// Framer scans an unbounded byte stream for RTCM 3.x frames. It is fed
// incrementally via Write and drained via Next; desynchronization is
// silent (spec.md 4.1 "Failure mode") and tracked via CRCFailures.
type Framer struct {
	buf         []byte
	CRCFailures uint64
}

// NewFramer creates an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Write appends newly-read bytes to the framer's internal buffer.
func (f *Framer) Write(data []byte) {
	f.buf = append(f.buf, data...)
}

// Next extracts the next complete, CRC-verified frame from the buffered
// bytes. It returns ok=false when there isn't enough data yet for
// another frame; call Write again and retry. Bytes that don't lead to a
// valid frame are discarded one at a time, per spec.md 4.1 step 4.
func (f *Framer) Next() (Frame, bool) {
	for {
		idx := indexByte(f.buf, preamble)
		if idx < 0 {
			// No preamble at all: keep at most the last byte (it could
			// be a 0xD3 split across two Write calls is impossible
			// since indexByte would have found it; nothing to keep).
			f.buf = f.buf[:0]
			return Frame{}, false
		}
		if idx > 0 {
			f.buf = f.buf[idx:]
		}

		if len(f.buf) < 3 {
			return Frame{}, false
		}
		length := (int(f.buf[1]&0x03) << 8) | int(f.buf[2])
		total := 3 + length + 3
		if len(f.buf) < total {
			return Frame{}, false
		}

		candidate := f.buf[:total]
		payload := candidate[3 : 3+length]
		wantCRC := (uint32(candidate[total-3]) << 16) | (uint32(candidate[total-2]) << 8) | uint32(candidate[total-1])
		gotCRC := crc24q(candidate[:total-3])

		if gotCRC != wantCRC {
			f.CRCFailures++
			f.buf = f.buf[1:]
			continue
		}

		msgType := -1
		if len(payload) >= 2 {
			msgType = (int(payload[0]) << 4) | (int(payload[1]) >> 4)
		}

		raw := make([]byte, total)
		copy(raw, candidate)
		f.buf = f.buf[total:]

		return Frame{
			MessageType: msgType,
			Raw:         raw,
			Payload:     raw[3 : 3+length],
		}, true
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

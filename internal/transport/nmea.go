package transport

import (
	"fmt"
	"math"
	"time"

	"github.com/adrianmo/go-nmea"

	"github.com/bramburn/gnssproc/internal/gnss"
)

// ParseGGA parses an incoming NMEA GGA sentence (e.g. from a device
// that reports its own fix alongside the RTCM stream), grounded on the
// teacher's use of adrianmo/go-nmea for NMEA sentence decoding.
func ParseGGA(sentence string) (lat, lon, altM float64, err error) {
	parsed, err := nmea.Parse(sentence)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("transport: parsing NMEA sentence: %w", err)
	}
	gga, ok := parsed.(nmea.GGA)
	if !ok {
		return 0, 0, 0, fmt.Errorf("transport: sentence is not GGA")
	}
	return gga.Latitude, gga.Longitude, gga.Altitude, nil
}

// FormatGGA builds a GGA sentence from a positioning solution, for
// rovers that must report their position back to an NTRIP VRS
// mountpoint (spec.md 4.6 station-position wiring's network-RTK
// counterpart).
func FormatGGA(sol gnss.PositioningSolution) string {
	t := sol.UTC.UTC()
	quality := 1
	if sol.Status != gnss.Fixed {
		quality = 0
	}

	body := fmt.Sprintf("GPGGA,%s,%s,%s,%d,%02d,%.1f,%.2f,M,0.0,M,,",
		formatNMEATime(t), formatNMEALat(sol.LatDeg), formatNMEALon(sol.LonDeg),
		quality, sol.NSat, sol.HDOP, sol.HeightM)

	return "$" + body + "*" + fmt.Sprintf("%02X", nmeaChecksum(body))
}

func formatNMEATime(t time.Time) string {
	return fmt.Sprintf("%02d%02d%05.2f", t.Hour(), t.Minute(), float64(t.Second())+float64(t.Nanosecond())/1e9)
}

func formatNMEALat(latDeg float64) string {
	hemi := "N"
	if latDeg < 0 {
		hemi = "S"
		latDeg = -latDeg
	}
	deg := math.Floor(latDeg)
	min := (latDeg - deg) * 60
	return fmt.Sprintf("%02d%07.4f,%s", int(deg), min, hemi)
}

func formatNMEALon(lonDeg float64) string {
	hemi := "E"
	if lonDeg < 0 {
		hemi = "W"
		lonDeg = -lonDeg
	}
	deg := math.Floor(lonDeg)
	min := (lonDeg - deg) * 60
	return fmt.Sprintf("%03d%07.4f,%s", int(deg), min, hemi)
}

func nmeaChecksum(body string) byte {
	var c byte
	for i := 0; i < len(body); i++ {
		c ^= body[i]
	}
	return c
}

package rtcm

// signalFrequency returns the nominal carrier frequency in Hz for a
// (system, RTCM signal ID) pair (spec.md 4.6). The RTCM MSM signal ID
// encodes the band as its leading digit (e.g. "1C", "2W", "5Q"); fcn is
// the GLONASS FDMA channel number in [-7, 6] and is ignored for every
// other system.
func signalFrequency(sys byte, signalID string, fcn int8) float64 {
	if len(signalID) == 0 {
		return 0
	}
	band := signalID[0]

	switch sys {
	case 'G', 'J': // GPS, QZSS
		switch band {
		case '1':
			return 1575.42e6
		case '2':
			return 1227.60e6
		case '5':
			return 1176.45e6
		}
	case 'E': // Galileo
		switch band {
		case '1':
			return 1575.42e6
		case '5':
			return 1176.45e6
		case '7':
			return 1207.14e6
		case '8':
			return 1191.795e6
		}
	case 'C': // BDS
		switch band {
		case '1':
			return 1575.42e6
		case '2':
			return 1561.098e6
		case '5':
			return 1176.45e6
		case '7':
			return 1207.14e6
		case '6':
			return 1268.52e6
		}
	case 'R': // GLONASS FDMA
		switch band {
		case '1':
			return 1602e6 + 0.5625e6*float64(fcn)
		case '2':
			return 1246e6 + 0.4375e6*float64(fcn)
		}
	}
	return 0
}

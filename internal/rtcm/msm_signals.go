package rtcm

// msmSignalTable maps an MSM signal-mask bit position (0-based, MSB
// first as broadcast) to its two-character RTCM signal ID, per system.
// Unused bit positions map to "" and are skipped. The tables cover the
// signals actually broadcast by current constellations; the remaining
// bit positions are reserved for future signals.
var msmSignalTable = map[byte][32]string{
	'G': {
		"", "1C", "1P", "1W", "1Y", "1M", "", "2C",
		"2P", "2W", "2Y", "2M", "", "2S", "2L", "2X",
		"", "1S", "1L", "1X", "", "5I", "5Q", "5X",
		"", "", "", "", "", "", "", "",
	},
	'R': {
		"", "1C", "1P", "2C", "2P", "", "", "",
		"", "", "", "", "", "", "", "",
		"", "", "", "", "", "", "", "",
		"", "", "", "", "", "", "", "",
	},
	'E': {
		"", "1C", "1A", "1B", "1X", "1Z", "", "6C",
		"6A", "6B", "6X", "6Z", "", "7I", "7Q", "7X",
		"", "8I", "8Q", "8X", "", "5I", "5Q", "5X",
		"", "", "", "", "", "", "", "",
	},
	'C': {
		"", "2I", "2Q", "2X", "", "", "", "6I",
		"6Q", "6X", "", "", "", "7I", "7Q", "7X",
		"", "", "", "", "", "5D", "5P", "5X",
		"", "", "", "", "", "", "", "",
	},
}

func msmSignalID(sys byte, bitPos int) string {
	table, ok := msmSignalTable[sys]
	if !ok || bitPos < 0 || bitPos >= 32 {
		return ""
	}
	return table[bitPos]
}

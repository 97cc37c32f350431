package rtcm

import (
	"testing"

	"github.com/bramburn/gnssproc/internal/ephemeris"
	"github.com/bramburn/gnssproc/internal/gnss"
)

// buildMSM7Frame encodes a single-satellite, single-signal GPS MSM7
// payload (message 1077) in the RTCM 10403.x MSM7 field order: header,
// satellite mask, signal mask, cell mask, the four satellite-data
// arrays (rough range, DF419 extended info, rough range extension,
// rough rate), then the six per-cell fine arrays.
func buildMSM7Frame(rangeMS, rangeExt, rateRough, finePR, finePhase int64, lock, cnr uint64, halfCycle uint64) []byte {
	w := &bitWriter{}
	w.putUint(1077, 12) // message number
	w.putUint(1, 12)    // reference station ID
	w.putUint(50000, 30) // epoch time, ms of week
	w.putUint(0, 1)      // multiple message bit
	w.putUint(0, 3)      // IODS
	w.putUint(0, 7)      // reserved
	w.putUint(0, 2)      // clock steering
	w.putUint(0, 2)      // external clock
	w.putUint(0, 1)      // smoothing indicator
	w.putUint(0, 3)      // smoothing interval

	satMask := uint64(1) << 63 // PRN 1
	w.putUint(satMask, 64)

	sigMask := uint64(1) << 30 // bit index 1 (MSB-first) -> "1C"
	w.putUint(sigMask, 32)

	w.putUint(1, 1) // one cell: (sat0, sig0)

	w.putUint(uint64(rangeMS), 8)
	w.putUint(0, 4) // DF419 extended satellite info
	w.putUint(uint64(rangeExt), 10)
	w.putInt(rateRough, 14)

	w.putInt(finePR, 20)
	w.putInt(finePhase, 24)
	w.putUint(lock, 10)
	w.putUint(halfCycle, 1)
	w.putUint(cnr, 10)
	w.putInt(0, 15) // fine rate

	return w.bytes
}

func TestDecodeMSM7SingleCell(t *testing.T) {
	const (
		rangeMS   = int64(100)
		rangeExt  = int64(512)
		rateRough = int64(1000)
		finePR    = int64(1000)
		finePhase = int64(2000)
		lock      = uint64(500)
		cnr       = uint64(640)
	)

	payload := buildMSM7Frame(rangeMS, rangeExt, rateRough, finePR, finePhase, lock, cnr, 0)

	ctx := MSMContext{
		Cache:         ephemeris.NewCache(),
		HaveApproxPos: false,
		GPSWeek:       2200,
		GPSDayOfWeek:  0,
	}

	epoch, ok := DecodeMSM7(1077, payload, ctx)
	if !ok {
		t.Fatal("DecodeMSM7 returned ok=false")
	}
	if epoch.GPSTowS != 50.0 {
		t.Fatalf("got GPSTowS %v, want 50.0", epoch.GPSTowS)
	}

	key := gnss.SatKey{Sys: 'G', PRN: 1}
	sat, found := epoch.Satellites[key]
	if !found {
		t.Fatalf("satellite G01 missing from decoded epoch, got %v", epoch.Satellites)
	}
	obs, found := sat.Signals["1C"]
	if !found {
		t.Fatalf("signal 1C missing from satellite G01, got %v", sat.Signals)
	}

	roughRangeM := float64(rangeMS)*speedOfLight/1000.0 + scaleU(uint64(rangeExt), 10)*speedOfLight/1000.0
	wantPR := roughRangeM + scale(finePR, 29)*speedOfLight/1000.0
	if obs.PseudorangeM != wantPR {
		t.Errorf("pseudorange: got %v, want %v", obs.PseudorangeM, wantPR)
	}

	freq := signalFrequency('G', "1C", 0)
	phaseM := roughRangeM + scale(finePhase, 31)*speedOfLight/1000.0
	wantPhase := phaseM * freq / speedOfLight
	if obs.CarrierPhaseCyc != wantPhase {
		t.Errorf("carrier phase: got %v, want %v", obs.CarrierPhaseCyc, wantPhase)
	}

	totalRate := float64(rateRough) + 0.0*1e-4
	wantDoppler := -totalRate * freq / speedOfLight
	if obs.DopplerHz != wantDoppler {
		t.Errorf("doppler: got %v, want %v", obs.DopplerHz, wantDoppler)
	}

	wantSNR := float64(cnr) / 16.0
	if obs.SNRdBHz != wantSNR {
		t.Errorf("SNR: got %v, want %v (DF408 has 2^-4 resolution)", obs.SNRdBHz, wantSNR)
	}
}

// TestDecodeMSM7DiscardsEmptyCell checks spec 4.6's rule that a signal
// cell with both SNR and carrier phase absent is dropped rather than
// stored as a zeroed observation.
func TestDecodeMSM7DiscardsEmptyCell(t *testing.T) {
	payload := buildMSM7Frame(100, 0, -8192, -524288, -8388608, 0, 0, 0)

	ctx := MSMContext{
		Cache:        ephemeris.NewCache(),
		GPSWeek:      2200,
		GPSDayOfWeek: 0,
	}

	epoch, ok := DecodeMSM7(1077, payload, ctx)
	if !ok {
		t.Fatal("DecodeMSM7 returned ok=false")
	}
	sat, found := epoch.Satellites[gnss.SatKey{Sys: 'G', PRN: 1}]
	if !found {
		t.Fatalf("satellite G01 missing from decoded epoch")
	}
	if len(sat.Signals) != 0 {
		t.Errorf("got %d signals, want 0 (cell has zero SNR and carrier phase)", len(sat.Signals))
	}
}

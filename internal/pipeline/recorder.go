package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bramburn/gnssproc/internal/gnss"
)

// Recorder persists the byte stream and/or merged epochs to disk for
// offline replay and debugging (spec.md 6, "Persisted state"). Neither
// output is required by the core pipeline; a nil *Recorder (the zero
// value returned when recording is disabled in configuration) is safe
// to pass around and simply does nothing.
type Recorder struct {
	mu sync.Mutex

	rawFile *os.File

	csvFile   *os.File
	csvWriter *csv.Writer
	interval  time.Duration
	lastWrite time.Time
}

// NewRecorder opens rawPath (raw .rtcm byte-faithful log, if non-empty)
// and csvPath (tabular per-signal observation log sampled every
// interval, if non-empty). Either path may be empty to skip that
// output.
func NewRecorder(rawPath, csvPath string, interval time.Duration) (*Recorder, error) {
	r := &Recorder{interval: interval}

	if rawPath != "" {
		f, err := os.OpenFile(rawPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("pipeline: opening raw recorder file: %w", err)
		}
		r.rawFile = f
	}

	if csvPath != "" {
		f, err := os.OpenFile(csvPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("pipeline: opening CSV recorder file: %w", err)
		}
		stat, statErr := f.Stat()
		r.csvFile = f
		r.csvWriter = csv.NewWriter(f)
		if statErr == nil && stat.Size() == 0 {
			r.csvWriter.Write([]string{"utc", "sat", "signal", "pseudorange_m", "carrier_phase_cyc", "doppler_hz", "snr_dbhz", "elevation_deg"})
			r.csvWriter.Flush()
		}
	}

	return r, nil
}

// RecordRaw appends chunk, byte-faithful, to the raw recorder file.
func (r *Recorder) RecordRaw(chunk []byte) {
	if r == nil || r.rawFile == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawFile.Write(chunk)
}

// RecordEpoch writes one CSV row per signal observation in e, provided
// at least interval has elapsed since the last write (spec.md 6, "at a
// configurable sampling period").
func (r *Recorder) RecordEpoch(e *gnss.EpochObservation) {
	if r == nil || r.csvWriter == nil || e == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lastWrite.IsZero() && e.UTC.Sub(r.lastWrite) < r.interval {
		return
	}
	r.lastWrite = e.UTC

	for key, sat := range e.Satellites {
		elev := ""
		if sat.ElevationDeg != nil {
			elev = fmt.Sprintf("%.3f", *sat.ElevationDeg)
		}
		for signalID, obs := range sat.Signals {
			r.csvWriter.Write([]string{
				e.UTC.UTC().Format(time.RFC3339Nano),
				key.String(),
				signalID,
				fmt.Sprintf("%.4f", obs.PseudorangeM),
				fmt.Sprintf("%.4f", obs.CarrierPhaseCyc),
				fmt.Sprintf("%.4f", obs.DopplerHz),
				fmt.Sprintf("%.2f", obs.SNRdBHz),
				elev,
			})
		}
	}
	r.csvWriter.Flush()
}

// Close flushes and closes any open recorder files.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	if r.csvWriter != nil {
		r.csvWriter.Flush()
	}
	if r.csvFile != nil {
		if err := r.csvFile.Close(); err != nil {
			firstErr = err
		}
	}
	if r.rawFile != nil {
		if err := r.rawFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

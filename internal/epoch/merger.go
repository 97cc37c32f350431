// Package epoch implements the positioning-stage epoch merger described
// in spec.md 4.7: fragments sharing a UTC second are combined into one
// epoch before being handed to the solver.
package epoch

import (
	"time"

	"github.com/bramburn/gnssproc/internal/gnss"
)

// Merger accumulates MSM fragments keyed by floor_to_second(utc) and
// flushes a complete epoch whenever a fragment with a different key
// arrives, or on Flush at shutdown.
type Merger struct {
	pending    *gnss.EpochObservation
	pendingKey time.Time
	haveKey    bool
}

// NewMerger creates an empty Merger.
func NewMerger() *Merger {
	return &Merger{}
}

// Add folds a decoded fragment into the pending epoch. It returns the
// previously pending epoch (ready for the solver) when the fragment
// starts a new UTC second, or nil if the fragment was merged into the
// epoch still being assembled.
func (m *Merger) Add(frag *gnss.EpochObservation) *gnss.EpochObservation {
	key := frag.FloorToSecond()

	if m.haveKey && key.Equal(m.pendingKey) {
		for satKey, sat := range frag.Satellites {
			m.pending.Satellites[satKey] = sat
		}
		return nil
	}

	var flushed *gnss.EpochObservation
	if m.haveKey {
		flushed = m.pending
	}

	m.pending = &gnss.EpochObservation{
		GPSTowS:    frag.GPSTowS,
		UTC:        frag.UTC,
		Satellites: cloneSatellites(frag.Satellites),
	}
	m.pendingKey = key
	m.haveKey = true

	return flushed
}

// Flush returns and clears any epoch still pending, for use at
// shutdown (spec.md 4.7, "On shutdown, any pending epoch is flushed").
func (m *Merger) Flush() *gnss.EpochObservation {
	if !m.haveKey {
		return nil
	}
	flushed := m.pending
	m.pending = nil
	m.haveKey = false
	return flushed
}

func cloneSatellites(in map[gnss.SatKey]*gnss.SatelliteState) map[gnss.SatKey]*gnss.SatelliteState {
	out := make(map[gnss.SatKey]*gnss.SatelliteState, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

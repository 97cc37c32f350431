// Package observability exposes the engine's Prometheus metrics
// (spec.md 5 "report drop counts to observability", spec.md 7's
// per-error-kind counting), grounded on the teacher corpus's use of
// prometheus/client_golang for server-side instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every counter/gauge the pipeline updates. Construct
// one with NewMetrics and pass it down to the pipeline stages that need
// it; there is no package-level global so multiple engines in one
// process (e.g. under test) don't share state.
type Metrics struct {
	FramesDecoded   prometheus.Counter
	CRCFailures     prometheus.Counter
	RingDrops       *prometheus.CounterVec
	ErrorsByKind    *prometheus.CounterVec
	EphemerisUpdates prometheus.Counter
	SolutionsEmitted prometheus.Counter
	SourceConnected  prometheus.Gauge

	GDOP prometheus.Gauge
	PDOP prometheus.Gauge
	HDOP prometheus.Gauge
	VDOP prometheus.Gauge
	NSat prometheus.Gauge
}

// NewMetrics registers the engine's metrics against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with any
// process-wide default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "gnssproc_frames_decoded_total",
			Help: "Total RTCM frames successfully CRC-verified.",
		}),
		CRCFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gnssproc_crc_failures_total",
			Help: "Total RTCM frames discarded due to CRC-24Q mismatch.",
		}),
		RingDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnssproc_ring_drops_total",
			Help: "Total items dropped by a ring buffer on overflow, by buffer name.",
		}, []string{"buffer"}),
		ErrorsByKind: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnssproc_errors_total",
			Help: "Total pipeline errors, by kind.",
		}, []string{"kind"}),
		EphemerisUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "gnssproc_ephemeris_updates_total",
			Help: "Total ephemeris cache insertions/replacements.",
		}),
		SolutionsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gnssproc_solutions_total",
			Help: "Total positioning solutions emitted, including non-FIXED ones.",
		}),
		SourceConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gnssproc_source_connected",
			Help: "1 if the byte source is currently connected, else 0.",
		}),
		GDOP: factory.NewGauge(prometheus.GaugeOpts{Name: "gnssproc_gdop", Help: "Geometric dilution of precision of the latest solution."}),
		PDOP: factory.NewGauge(prometheus.GaugeOpts{Name: "gnssproc_pdop", Help: "Position dilution of precision of the latest solution."}),
		HDOP: factory.NewGauge(prometheus.GaugeOpts{Name: "gnssproc_hdop", Help: "Horizontal dilution of precision of the latest solution."}),
		VDOP: factory.NewGauge(prometheus.GaugeOpts{Name: "gnssproc_vdop", Help: "Vertical dilution of precision of the latest solution."}),
		NSat: factory.NewGauge(prometheus.GaugeOpts{Name: "gnssproc_nsat", Help: "Satellite count used in the latest solution."}),
	}
}

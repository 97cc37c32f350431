// Package pipeline wires the byte source, RTCM framer, ephemeris cache,
// epoch merger and WLS-SPP solver into the three-goroutine real-time
// chain described in spec.md 5: I/O -> Framer -> ring -> Decoder ->
// (cache write | positioning ring) -> Positioning -> solver -> sink. The
// optional Recorder has no goroutine of its own; the I/O and positioning
// goroutines call it directly.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bramburn/gnssproc/internal/config"
	"github.com/bramburn/gnssproc/internal/ephemeris"
	"github.com/bramburn/gnssproc/internal/epoch"
	"github.com/bramburn/gnssproc/internal/gnss"
	"github.com/bramburn/gnssproc/internal/observability"
	"github.com/bramburn/gnssproc/internal/ring"
	"github.com/bramburn/gnssproc/internal/rtcm"
	"github.com/bramburn/gnssproc/internal/solver"
	"github.com/bramburn/gnssproc/internal/transport"
)

const (
	reconnectDelay  = 3 * time.Second
	pollInterval    = 100 * time.Millisecond
	ringCapacity    = 256
	ringGetTimeout  = 200 * time.Millisecond
	readBufferBytes = 4096
)

// Pipeline owns the goroutines and shared state of one running engine
// instance.
type Pipeline struct {
	cfg    config.Config
	source transport.Source
	log    *logrus.Logger
	metrics *observability.Metrics

	cache    *ephemeris.Cache
	snapshot *config.Snapshot
	solver   *solver.Solver

	frames  *ring.Buffer[rtcm.Frame]
	epochs  *ring.Buffer[*gnss.EpochObservation]

	Solutions chan gnss.PositioningSolution

	recorder *Recorder

	lastCRCFailures uint64
}

// New builds a Pipeline from its configuration and byte source. log and
// metrics may be nil: a nil log is replaced by a standard logrus.Logger,
// and a nil metrics leaves metric collection off.
func New(cfg config.Config, source transport.Source, log *logrus.Logger, metrics *observability.Metrics) *Pipeline {
	if log == nil {
		log = logrus.New()
	}

	p := &Pipeline{
		cfg:       cfg,
		source:    source,
		log:       log,
		metrics:   metrics,
		cache:     ephemeris.NewCache(),
		snapshot:  config.NewSnapshot(cfg.ApproxRecPosECEF),
		solver:    solver.New(cfg.SolverConfig()),
		frames:    ring.New[rtcm.Frame](ringCapacity),
		epochs:    ring.New[*gnss.EpochObservation](ringCapacity),
		Solutions: make(chan gnss.PositioningSolution, ringCapacity),
	}
	return p
}

// SetRecorder attaches an optional raw/CSV logger (spec.md 6, "Persisted
// state"): the I/O goroutine feeds it every raw chunk read from the
// source, and the positioning goroutine feeds it each merged epoch.
func (p *Pipeline) SetRecorder(r *Recorder) { p.recorder = r }

// Run starts the I/O, decoder and positioning goroutines and blocks
// until ctx is cancelled, at which point it closes both ring buffers
// (waking any blocked goroutine) and waits for them to exit.
func (p *Pipeline) Run(ctx context.Context) {
	done := make(chan struct{}, 3)

	go p.runIO(ctx, done)
	go p.runDecoder(ctx, done)
	go p.runPositioning(ctx, done)

	<-ctx.Done()
	p.frames.Close()
	p.epochs.Close()
	<-done
	<-done
	<-done
	close(p.Solutions)
}

func (p *Pipeline) runIO(ctx context.Context, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	framer := rtcm.NewFramer()
	buf := make([]byte, readBufferBytes)

	connect := func() bool {
		for {
			if ctx.Err() != nil {
				return false
			}
			if err := p.source.Open(ctx); err != nil {
				p.logError(gnss.PipelineError{Kind: gnss.TransportError, Stream: "source", Cause: err})
				p.setConnected(false)
				if !p.sleepWithPoll(ctx, reconnectDelay) {
					return false
				}
				continue
			}
			sessionID := uuid.New()
			p.log.WithField("session", sessionID).Info("pipeline: source connected")
			p.setConnected(true)
			return true
		}
	}

	if !connect() {
		return
	}

	for {
		if ctx.Err() != nil {
			p.source.Close()
			return
		}

		n, err := p.source.Read(ctx, buf)
		if err != nil {
			p.logError(gnss.PipelineError{Kind: gnss.TransportError, Stream: "source", Cause: err})
			p.setConnected(false)
			p.source.Close()
			if !connect() {
				return
			}
			continue
		}
		if n == 0 {
			continue
		}

		chunk := append([]byte(nil), buf[:n]...)
		if p.recorder != nil {
			p.recorder.RecordRaw(chunk)
		}
		framer.Write(chunk)

		for {
			frame, ok := framer.Next()
			if !ok {
				break
			}
			if p.metrics != nil {
				p.metrics.FramesDecoded.Inc()
			}
			if p.frames.Len() >= ringCapacity && p.metrics != nil {
				p.metrics.RingDrops.WithLabelValues("frames").Inc()
			}
			if !p.frames.PutNonBlocking(frame) {
				return // closed
			}
		}
		if p.metrics != nil && framer.CRCFailures > p.lastCRCFailures {
			p.metrics.CRCFailures.Add(float64(framer.CRCFailures - p.lastCRCFailures))
			p.lastCRCFailures = framer.CRCFailures
		}
	}
}

func (p *Pipeline) runDecoder(ctx context.Context, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	for {
		frame, ok := p.frames.Get(ringGetTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		gpsWeek, gpsDOW := currentGPSWeekAndDay(time.Now())

		switch frame.MessageType {
		case 1005, 1006:
			sp := rtcm.DecodeStationPosition(frame.MessageType, frame.Payload, time.Now())
			p.snapshot.Set(sp.ECEF)
			p.solver.SetApproxPosition(sp.ECEF)
		case 1019:
			eph := rtcm.DecodeGPSEphemeris(frame.Payload)
			p.cache.PutKepler(gnss.SatKey{Sys: 'G', PRN: eph.PRN}, eph)
			p.bumpEphemerisMetric()
		case 1020:
			eph := rtcm.DecodeGlonassEphemeris(frame.Payload)
			p.cache.PutGlonass(gnss.SatKey{Sys: 'R', PRN: eph.PRN}, eph)
			p.bumpEphemerisMetric()
		case 1042:
			eph := rtcm.DecodeBDSEphemeris(frame.Payload)
			p.cache.PutKepler(gnss.SatKey{Sys: 'C', PRN: eph.PRN}, eph)
			p.bumpEphemerisMetric()
		case 1045, 1046:
			eph := rtcm.DecodeGalileoEphemeris(frame.Payload)
			p.cache.PutKepler(gnss.SatKey{Sys: 'E', PRN: eph.PRN}, eph)
			p.bumpEphemerisMetric()
		case 1077, 1087, 1097, 1117, 1127:
			msmCtx := rtcm.MSMContext{
				Cache:         p.cache,
				ApproxRecPos:  p.snapshot.Get(),
				HaveApproxPos: p.snapshot.HasFix(),
				GPSWeek:       gpsWeek,
				GPSDayOfWeek:  gpsDOW,
			}
			fragment, ok := rtcm.DecodeMSM7(frame.MessageType, frame.Payload, msmCtx)
			if !ok {
				continue
			}
			filterTargetSystems(fragment, p.cfg.TargetSystemSet())
			if p.epochs.Len() >= ringCapacity && p.metrics != nil {
				p.metrics.RingDrops.WithLabelValues("epochs").Inc()
			}
			if !p.epochs.PutNonBlocking(fragment) {
				return
			}
		default:
			// Recognized-but-ignored message type (spec.md 6): parsed
			// far enough to get a type ID, then dropped without
			// disturbing framer resync.
		}
	}
}

func (p *Pipeline) runPositioning(ctx context.Context, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	merger := epoch.NewMerger()

	emit := func(e *gnss.EpochObservation) {
		if e == nil {
			return
		}
		if p.recorder != nil {
			p.recorder.RecordEpoch(e)
		}
		sol, ok := p.solver.Solve(e)
		if !ok {
			p.logError(gnss.PipelineError{Kind: gnss.SolverDegenerate, Stream: "solver"})
			return
		}
		p.recordSolutionMetrics(sol)
		select {
		case p.Solutions <- sol:
		case <-ctx.Done():
		}
	}

	for {
		fragment, ok := p.epochs.Get(ringGetTimeout)
		if !ok {
			if ctx.Err() != nil {
				emit(merger.Flush())
				return
			}
			continue
		}
		emit(merger.Add(fragment))
	}
}

func (p *Pipeline) sleepWithPoll(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		time.Sleep(pollInterval)
	}
	return ctx.Err() == nil
}

func (p *Pipeline) setConnected(connected bool) {
	if p.metrics == nil {
		return
	}
	if connected {
		p.metrics.SourceConnected.Set(1)
	} else {
		p.metrics.SourceConnected.Set(0)
	}
}

func (p *Pipeline) bumpEphemerisMetric() {
	if p.metrics != nil {
		p.metrics.EphemerisUpdates.Inc()
	}
}

func (p *Pipeline) recordSolutionMetrics(sol gnss.PositioningSolution) {
	if p.metrics == nil {
		return
	}
	p.metrics.SolutionsEmitted.Inc()
	p.metrics.GDOP.Set(sol.GDOP)
	p.metrics.PDOP.Set(sol.PDOP)
	p.metrics.HDOP.Set(sol.HDOP)
	p.metrics.VDOP.Set(sol.VDOP)
	p.metrics.NSat.Set(float64(sol.NSat))
}

func (p *Pipeline) logError(err gnss.PipelineError) {
	level := logrus.DebugLevel
	switch err.Kind {
	case gnss.TransportError:
		level = logrus.WarnLevel
	case gnss.SolverDegenerate, gnss.Convergence:
		level = logrus.InfoLevel
	}
	entry := p.log.WithField("kind", err.Kind.String()).WithField("stream", err.Stream)
	if err.Cause != nil {
		entry = entry.WithField("error", err.Cause)
	}
	entry.Log(level, "pipeline error")

	if p.metrics != nil {
		p.metrics.ErrorsByKind.WithLabelValues(err.Kind.String()).Inc()
	}
}

func filterTargetSystems(e *gnss.EpochObservation, systems map[byte]bool) {
	for key := range e.Satellites {
		if !systems[byte(key.Sys)] {
			delete(e.Satellites, key)
		}
	}
}

// currentGPSWeekAndDay derives the current GPS week number and
// day-of-week from a UTC time, used to anchor GLONASS's time-of-day
// fields into a time-of-week (spec.md 4.6).
func currentGPSWeekAndDay(t time.Time) (week, dayOfWeek int) {
	gpsEpoch := time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)
	elapsed := t.UTC().Sub(gpsEpoch)
	days := int(elapsed.Hours() / 24)
	week = days / 7
	dayOfWeek = days % 7
	return week, dayOfWeek
}

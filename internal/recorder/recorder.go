// Package recorder turns the synchronized shared memory snapshot into
// session, sample, lap and pause events for the storage sinks.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rf2tools/rf2sync/internal/dispatcher"
	"github.com/rf2tools/rf2sync/internal/queue"
	"github.com/rf2tools/rf2sync/internal/session"
	"github.com/rf2tools/rf2sync/pkg/core"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// MeterName is the instrumentation scope of the recorder instruments.
const MeterName = "rf2sync/recorder"

// Defaults for zero Config fields.
const (
	DefaultSampleInterval = 100 * time.Millisecond
	DefaultTraceEvery     = 5
	DefaultMaxTracePoints = 10000
)

// Source is the part of the rf2sm client the recorder reads.
type Source interface {
	IsPaused() bool
	IsFrozen() bool
	PlayerIndex() int
	ScoringInfo() rf2data.ScoringInfo
	PlayerScoring() rf2data.ScoringVehicle
	PlayerTelemetry() rf2data.TelemetryVehicle
	Extended() rf2data.Extended
	ForceFeedback() rf2data.ForceFeedback
}

// Dispatcher routes recorder events.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Config configures a Recorder.
type Config struct {
	SampleInterval time.Duration
	// TraceEvery keeps every nth sample position in the lap trace.
	TraceEvery     int
	MaxTracePoints int
}

// Recorder samples a Source on a fixed interval.
type Recorder struct {
	cfg     Config
	src     Source
	d       Dispatcher
	session *session.Context
	log     *slog.Logger
	now     func() time.Time

	// tick state, owned by the loop goroutine
	current  *core.Session
	paused   bool
	lastLaps int16
	samples  int
	trace    *queue.Queue[core.Position3D]

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	sampleCount metric.Int64Counter
	lapCount    metric.Int64Counter
	sessions    metric.Int64Counter
	dispatchErr metric.Int64Counter
}

// New creates a recorder. sc may be nil.
func New(cfg Config, src Source, d Dispatcher, sc *session.Context, logger *slog.Logger) (*Recorder, error) {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.TraceEvery <= 0 {
		cfg.TraceEvery = DefaultTraceEvery
	}
	if cfg.MaxTracePoints <= 0 {
		cfg.MaxTracePoints = DefaultMaxTracePoints
	}
	if sc == nil {
		sc = session.NewContext()
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		cfg:      cfg,
		src:      src,
		d:        d,
		session:  sc,
		log:      logger,
		now:      time.Now,
		lastLaps: -1,
		trace:    queue.NewBounded[core.Position3D](cfg.MaxTracePoints),
	}

	m := otel.Meter(MeterName)
	var err error
	r.sampleCount, err = m.Int64Counter("recorder.samples",
		metric.WithDescription("Telemetry samples recorded"))
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}
	r.lapCount, err = m.Int64Counter("recorder.laps",
		metric.WithDescription("Laps completed"))
	if err != nil {
		return nil, fmt.Errorf("creating laps counter: %w", err)
	}
	r.sessions, err = m.Int64Counter("recorder.sessions",
		metric.WithDescription("Sessions started"))
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}
	r.dispatchErr, err = m.Int64Counter("recorder.dispatch.errors",
		metric.WithDescription("Events the sinks rejected"))
	if err != nil {
		return nil, fmt.Errorf("creating dispatch error counter: %w", err)
	}
	return r, nil
}

// Start launches the sampling loop. Calling Start on a running recorder
// does nothing.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.running = true
	go r.loop(ctx, r.done)
}

// Stop halts the loop and ends the open session.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.cancel()
	done := r.done
	r.running = false
	r.mu.Unlock()

	<-done
	r.endSession(r.now())
}

func (r *Recorder) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.cfg.SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(r.now())
		}
	}
}

// Current returns the open session, or nil.
func (r *Recorder) Current() *core.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Recorder) tick(now time.Time) {
	paused := r.src.IsPaused()
	if paused != r.paused {
		r.paused = paused
		if r.Current() != nil {
			r.emit(CmdPause, &core.PauseEvent{Time: now, Paused: paused, Reason: r.pauseReason(paused)})
		}
	}
	if paused {
		return
	}

	info := r.src.ScoringInfo()
	if info.TrackName == "" {
		r.endSession(now)
		return
	}
	if r.src.PlayerIndex() == rf2data.InvalidIndex {
		return
	}

	scoring := r.src.PlayerScoring()
	key := core.Session{TrackName: info.TrackName, SessionType: rf2data.SessionName(info.Session)}.Key()
	if cur := r.Current(); cur == nil || cur.Key() != key {
		r.endSession(now)
		r.startSession(now, info, scoring)
	}

	tel := r.src.PlayerTelemetry()
	sample := &core.TelemetrySample{
		Time:        now,
		ElapsedTime: tel.ElapsedTime,
		Lap:         tel.LapNumber,
		LapDistance: scoring.LapDist,
		Gear:        tel.Gear,
		EngineRPM:   tel.EngineRPM,
		Speed:       tel.Speed(),
		Throttle:    tel.FilteredThrottle,
		Brake:       tel.FilteredBrake,
		Steering:    tel.FilteredSteering,
		Clutch:      tel.FilteredClutch,
		Fuel:        tel.Fuel,
		Position:    position(tel.Pos),
		Place:       scoring.Place,
		InPits:      scoring.InPits,
		Force:       r.src.ForceFeedback().ForceValue,
	}
	r.emit(CmdSample, sample)
	r.sampleCount.Add(context.Background(), 1)

	if r.samples%r.cfg.TraceEvery == 0 {
		r.trace.Push(sample.Position)
	}
	r.samples++

	r.checkLap(now, scoring, tel)
}

func (r *Recorder) checkLap(now time.Time, scoring rf2data.ScoringVehicle, tel rf2data.TelemetryVehicle) {
	laps := scoring.TotalLaps
	switch {
	case r.lastLaps < 0:
		r.lastLaps = laps
		return
	case laps < r.lastLaps:
		// restart within the same session
		r.lastLaps = laps
		r.trace.Clear()
		return
	case laps == r.lastLaps:
		return
	}
	r.lastLaps = laps

	lap := &core.LapRecord{
		Time:    now,
		Lap:     laps,
		LapTime: scoring.LastLapTime,
		Place:   scoring.Place,
		Fuel:    tel.Fuel,
		Invalid: scoring.LastLapTime <= 0,
		Trace:   r.trace.GetAndEmpty(),
	}
	if !lap.Invalid {
		lap.Sector1 = scoring.LastSector1
		lap.Sector2 = scoring.LastSector2 - scoring.LastSector1
		lap.Sector3 = scoring.LastLapTime - scoring.LastSector2
	}
	r.emit(CmdLap, lap)
	r.lapCount.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("invalid", lap.Invalid)))
	r.log.Info("lap completed", "lap", lap.Lap, "lapTime", lap.LapTime, "invalid", lap.Invalid)
}

func (r *Recorder) startSession(now time.Time, info rf2data.ScoringInfo, scoring rf2data.ScoringVehicle) {
	s := &core.Session{
		StartTime:     now,
		TrackName:     info.TrackName,
		SessionType:   rf2data.SessionName(info.Session),
		SessionNumber: info.Session,
		DriverName:    scoring.DriverName,
		VehicleName:   scoring.VehicleName,
		VehicleClass:  scoring.VehicleClass,
		PluginVersion: r.src.Extended().Version,
		MaxLaps:       info.MaxLaps,
		LapDistance:   info.LapDist,
	}

	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	r.lastLaps = -1
	r.samples = 0
	r.trace.Clear()

	// sinks may assign ids on their copy
	start := *s
	r.emit(CmdSessionStart, &start)
	r.session.SetSession(s)
	r.sessions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("session", s.SessionType)))
	r.log.Info("session started", "track", s.TrackName, "session", s.SessionType,
		"driver", s.DriverName, "vehicle", s.VehicleName)
}

func (r *Recorder) endSession(now time.Time) {
	r.mu.Lock()
	s := r.current
	r.current = nil
	r.mu.Unlock()
	if s == nil {
		return
	}

	s.EndTime = now
	r.emit(CmdSessionEnd, nil)
	r.session.Clear()
	r.trace.Clear()
	r.lastLaps = -1
	r.log.Info("session ended", "track", s.TrackName, "session", s.SessionType,
		"duration", s.EndTime.Sub(s.StartTime))
}

func (r *Recorder) emit(cmd string, payload any) {
	_, err := r.d.Dispatch(dispatcher.Event{Command: cmd, Payload: payload, Timestamp: r.now()})
	if err != nil {
		r.dispatchErr.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", cmd)))
		r.log.Warn("dispatch failed", "command", cmd, "error", err)
	}
}

func (r *Recorder) pauseReason(paused bool) string {
	switch {
	case !paused:
		return "resumed"
	case r.src.IsFrozen():
		return "producer frozen"
	default:
		return "player not found"
	}
}

func position(v rf2data.Vec3) core.Position3D {
	return core.Position3D{X: v.X, Y: v.Y, Z: v.Z}
}

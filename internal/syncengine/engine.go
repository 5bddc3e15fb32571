// Package syncengine keeps a coherent view of the plugin regions and the
// resolved local player up to date from one background goroutine.
package syncengine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rf2tools/rf2sync/internal/identity"
	"github.com/rf2tools/rf2sync/internal/recordset"
	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// MeterName is the instrumentation scope of the engine instruments.
const MeterName = "rf2sync/syncengine"

// State is the engine lifecycle state.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config holds the engine tuning values. Zero fields take the defaults.
type Config struct {
	Opener shmem.Opener

	ActiveInterval   time.Duration
	IdleInterval     time.Duration
	FreezeWindow     time.Duration
	MaxResolveMisses int
}

// Defaults used for zero Config fields.
const (
	DefaultActiveInterval   = 10 * time.Millisecond
	DefaultIdleInterval     = 500 * time.Millisecond
	DefaultFreezeWindow     = 5 * time.Second
	DefaultMaxResolveMisses = 5
)

func (c Config) withDefaults() Config {
	if c.Opener == nil {
		c.Opener = shmem.OSOpener{}
	}
	if c.ActiveInterval <= 0 {
		c.ActiveInterval = DefaultActiveInterval
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = DefaultIdleInterval
	}
	if c.FreezeWindow <= 0 {
		c.FreezeWindow = DefaultFreezeWindow
	}
	if c.MaxResolveMisses <= 0 {
		c.MaxResolveMisses = DefaultMaxResolveMisses
	}
	return c
}

// playerPin is the caller's override, published as one value so the loop
// never sees an index from one call with the flag from another.
type playerPin struct {
	index   int
	enabled bool
}

// Player is the published result of the last successful resolution.
type Player struct {
	identity.Identity
	ResolvedAt time.Time
}

// Engine owns a record set and the loop refreshing it.
type Engine struct {
	cfg   Config
	log   Logger
	clock func() time.Time

	mu         sync.Mutex // serializes Start and Stop
	state      atomic.Int32
	restarting atomic.Bool
	stop       chan struct{}
	done       chan struct{}

	set    atomic.Pointer[recordset.Set]
	player atomic.Pointer[Player]
	paused atomic.Bool
	frozen atomic.Bool
	pin    atomic.Pointer[playerPin]

	// loop state, owned by the loop goroutine once running
	misses      int
	lastCheck   time.Time
	lastVersion uint32
	delay       atomic.Int64

	coherenceMisses  metric.Int64Counter
	resolveMisses    metric.Int64Counter
	pauseTransitions metric.Int64Counter
	pollDelay        metric.Int64ObservableGauge
}

// New creates a stopped engine.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(cfg Config, logger Logger) (*Engine, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	e := &Engine{
		cfg:   cfg.withDefaults(),
		log:   logger,
		clock: time.Now,
	}
	e.pin.Store(&playerPin{index: rf2data.InvalidIndex})
	e.delay.Store(int64(e.cfg.IdleInterval))

	m := otel.Meter(MeterName)
	var err error

	e.coherenceMisses, err = m.Int64Counter(
		"sync.coherence.misses",
		metric.WithDescription("Torn region reads discarded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating coherence miss counter: %w", err)
	}

	e.resolveMisses, err = m.Int64Counter(
		"sync.resolve.misses",
		metric.WithDescription("Ticks where the local player could not be resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolve miss counter: %w", err)
	}

	e.pauseTransitions, err = m.Int64Counter(
		"sync.pause.transitions",
		metric.WithDescription("Changes of the paused flag"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pause counter: %w", err)
	}

	e.pollDelay, err = m.Int64ObservableGauge(
		"sync.poll.delay",
		metric.WithDescription("Current delay between loop iterations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating poll delay gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(e.pollDelay, time.Duration(e.delay.Load()).Milliseconds())
			return nil
		},
		e.pollDelay,
	)
	if err != nil {
		return nil, fmt.Errorf("registering poll delay callback: %w", err)
	}

	return e, nil
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Start maps the regions, resolves the player once and starts the loop. It
// is a no-op unless the engine is stopped. Only mapping failures are
// returned, and the engine is left stopped on failure.
func (e *Engine) Start(mode rf2data.AccessMode, pid string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st := e.State(); st != Stopped {
		e.log.Debug("start ignored", "state", st.String())
		return nil
	}
	e.state.Store(int32(Starting))

	set, err := recordset.Open(e.cfg.Opener, mode, pid, e.log)
	if err != nil {
		e.state.Store(int32(Stopped))
		return fmt.Errorf("starting sync engine: %w", err)
	}
	// the previous player stays published until the next hit
	e.set.Store(set)

	e.prepare()
	e.refresh()
	e.resolve(e.clock())

	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run(e.stop, e.done)

	e.state.Store(int32(Running))
	e.log.Info("sync engine started", "access", mode.String(), "pid", pid)
	return nil
}

// Stop ends the loop, waits for it to exit and closes the regions. The last
// snapshots stay readable. It is a no-op unless the engine is running.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st := e.State(); st != Running {
		e.log.Debug("stop ignored", "state", st.String())
		return
	}
	e.state.Store(int32(Stopping))

	close(e.stop)
	<-e.done

	if set := e.set.Load(); set != nil {
		if err := set.Close(); err != nil {
			e.log.Error("closing regions", "error", err)
		}
	}
	e.paused.Store(false)
	e.state.Store(int32(Stopped))
	e.log.Info("sync engine stopped")
}

// Restart stops and starts the engine. A restart requested while another is
// in progress is dropped.
func (e *Engine) Restart(mode rf2data.AccessMode, pid string) error {
	if !e.restarting.CompareAndSwap(false, true) {
		e.log.Debug("restart already in progress")
		return nil
	}
	defer e.restarting.Store(false)

	e.Stop()
	return e.Start(mode, pid)
}

// SetPlayerOverride pins the player to a scoring index, or releases the pin
// when enabled is false.
func (e *Engine) SetPlayerOverride(index int, enabled bool) {
	e.pin.Store(&playerPin{index: index, enabled: enabled})
}

// PlayerOverride returns the pinned index and whether the pin is active.
func (e *Engine) PlayerOverride() (int, bool) {
	p := e.pin.Load()
	return p.index, p.enabled
}

// Player returns the last resolved player, or nil before the first hit. It
// survives Stop and Restart.
func (e *Engine) Player() *Player {
	return e.player.Load()
}

// Records returns the current record set, or nil if the engine never started.
func (e *Engine) Records() *recordset.Set {
	return e.set.Load()
}

// Paused reports whether readers should treat the player data as stale.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// Frozen reports whether the producer stopped advancing its scoring stamp.
func (e *Engine) Frozen() bool {
	return e.frozen.Load()
}

// Delay returns the current loop cadence.
func (e *Engine) Delay() time.Duration {
	return time.Duration(e.delay.Load())
}

func (e *Engine) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(e.Delay())
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}
		timer.Reset(e.step(e.clock()))
	}
}

// prepare resets the loop state. The engine starts frozen at the idle
// cadence until the producer is seen advancing.
func (e *Engine) prepare() {
	e.misses = 0
	e.lastCheck = time.Time{}
	e.lastVersion = 0
	e.frozen.Store(true)
	e.paused.Store(false)
	e.delay.Store(int64(e.cfg.IdleInterval))
}

// step runs one loop iteration and returns the delay before the next one.
func (e *Engine) step(now time.Time) time.Duration {
	e.refresh()
	e.checkFreeze(now)
	if !e.frozen.Load() {
		e.resolve(now)
	}
	return e.Delay()
}

func (e *Engine) refresh() {
	set := e.set.Load()
	if n := set.Refresh(); n > 0 {
		e.coherenceMisses.Add(context.Background(), int64(n))
	}
}

func (e *Engine) checkFreeze(now time.Time) {
	version := e.set.Load().Scoring().VersionEnd()

	if e.frozen.Load() && version != e.lastVersion {
		e.frozen.Store(false)
		e.setPaused(false, "producer resumed")
		e.delay.Store(int64(e.cfg.ActiveInterval))
		e.log.Info("producer active", "version", version)
	}

	if now.Sub(e.lastCheck) < e.cfg.FreezeWindow {
		return
	}
	if !e.frozen.Load() && version == e.lastVersion {
		e.frozen.Store(true)
		e.setPaused(true, "producer frozen")
		e.delay.Store(int64(e.cfg.IdleInterval))
		e.log.Info("producer frozen", "version", version, "window", e.cfg.FreezeWindow)
	}
	e.lastVersion = version
	e.lastCheck = now
}

func (e *Engine) resolve(now time.Time) {
	set := e.set.Load()
	pinned, override := e.PlayerOverride()

	id, ok := identity.Resolve(set.Scoring(), set.Telemetry(), pinned, override)
	if !ok {
		e.resolveMisses.Add(context.Background(), 1)
		if e.misses < e.cfg.MaxResolveMisses {
			e.misses++
		}
		if e.misses >= e.cfg.MaxResolveMisses {
			e.setPaused(true, "player not found")
		}
		return
	}

	e.misses = 0
	e.setPaused(false, "player found")

	if !id.HasTelemetry() {
		if prev := e.player.Load(); prev != nil && prev.ID == id.ID {
			id.Telemetry = prev.Telemetry
		}
	}
	e.player.Store(&Player{Identity: id, ResolvedAt: now})
}

func (e *Engine) setPaused(paused bool, reason string) {
	if e.paused.Swap(paused) == paused {
		return
	}
	e.pauseTransitions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("paused", paused)))
	e.log.Info("sync paused changed", "paused", paused, "reason", reason)
}

// Package rf2sm is the read API over the rFactor 2 shared memory plugin.
//
// A Client keeps coherent copies of the plugin records and tracks the local
// player's slots by vehicle id. All readers are safe for concurrent use and
// return zero values, never panics, for out-of-range indexes or a client that
// was never started.
package rf2sm

import (
	"sync"
	"time"

	"github.com/rf2tools/rf2sync/internal/identity"
	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/internal/syncengine"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config configures a Client. Zero durations take the engine defaults.
type Config struct {
	Mode   rf2data.AccessMode
	PID    string
	ShmDir string

	ActiveInterval   time.Duration
	IdleInterval     time.Duration
	FreezeWindow     time.Duration
	MaxResolveMisses int
}

// Client is the shared memory facade.
type Client struct {
	engine *syncengine.Engine

	mu   sync.Mutex
	mode rf2data.AccessMode
	pid  string
}

// New creates a client reading the OS shared memory.
func New(cfg Config, logger Logger) (*Client, error) {
	return NewWithOpener(cfg, shmem.OSOpener{Dir: cfg.ShmDir}, logger)
}

// NewWithOpener creates a client reading regions from opener.
func NewWithOpener(cfg Config, opener shmem.Opener, logger Logger) (*Client, error) {
	var log syncengine.Logger
	if logger != nil {
		log = logger
	}
	engine, err := syncengine.New(syncengine.Config{
		Opener:           opener,
		ActiveInterval:   cfg.ActiveInterval,
		IdleInterval:     cfg.IdleInterval,
		FreezeWindow:     cfg.FreezeWindow,
		MaxResolveMisses: cfg.MaxResolveMisses,
	}, log)
	if err != nil {
		return nil, err
	}
	return &Client{engine: engine, mode: cfg.Mode, pid: cfg.PID}, nil
}

// Start maps the regions and starts synchronizing. Calling Start on a
// running client does nothing.
func (c *Client) Start() error {
	mode, pid := c.target()
	return c.engine.Start(mode, pid)
}

// Stop stops synchronizing. The last values stay readable.
func (c *Client) Stop() {
	c.engine.Stop()
}

// Restart stops and starts again, picking up SetPID and SetMode changes.
func (c *Client) Restart() error {
	mode, pid := c.target()
	return c.engine.Restart(mode, pid)
}

// SetPID sets the producer process id used to name the regions on the next
// Start. An empty id selects the single player mapping names.
func (c *Client) SetPID(pid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pid = pid
}

// SetMode sets the scoring and telemetry access mode used on the next Start.
func (c *Client) SetMode(mode rf2data.AccessMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

// SetPlayerOverride pins the local player to a scoring index. The index is
// clamped to [-1, 127]; -1 never resolves.
func (c *Client) SetPlayerOverride(index int) {
	index = min(max(index, rf2data.InvalidIndex), rf2data.MaxVehicles-1)
	c.engine.SetPlayerOverride(index, true)
}

// ClearPlayerOverride goes back to the live local player flag.
func (c *Client) ClearPlayerOverride() {
	idx, _ := c.engine.PlayerOverride()
	c.engine.SetPlayerOverride(idx, false)
}

// State returns the engine lifecycle state.
func (c *Client) State() syncengine.State {
	return c.engine.State()
}

// ScoringInfo returns the session block of the last scoring snapshot.
func (c *Client) ScoringInfo() rf2data.ScoringInfo {
	var info rf2data.ScoringInfo
	c.view(rf2data.KindScoring, func(r rf2data.Record) {
		info = rf2data.DecodeScoringInfo(r)
	})
	return info
}

// ScoringVehicle returns the scoring slot at index.
func (c *Client) ScoringVehicle(index int) rf2data.ScoringVehicle {
	var v rf2data.ScoringVehicle
	c.view(rf2data.KindScoring, func(r rf2data.Record) {
		slot, _ := r.Slot(index)
		v = slot.Scoring()
	})
	return v
}

// TelemetryVehicle returns the telemetry of the vehicle at scoring index,
// matched by vehicle id since the two arrays are ordered independently.
func (c *Client) TelemetryVehicle(index int) rf2data.TelemetryVehicle {
	var v rf2data.TelemetryVehicle
	c.view(rf2data.KindScoring, func(scoring rf2data.Record) {
		c.view(rf2data.KindTelemetry, func(tele rf2data.Record) {
			slot, _ := tele.Slot(identity.TelemetryIndex(scoring, tele, index))
			v = slot.Telemetry()
		})
	})
	return v
}

// PlayerScoring returns the local player's scoring slot from the last
// successful resolution.
func (c *Client) PlayerScoring() rf2data.ScoringVehicle {
	if p := c.engine.Player(); p != nil {
		return p.Scoring.Scoring()
	}
	return rf2data.ScoringVehicle{}
}

// PlayerTelemetry returns the local player's telemetry slot. When the last
// resolution found no telemetry match the previous values are kept.
func (c *Client) PlayerTelemetry() rf2data.TelemetryVehicle {
	if p := c.engine.Player(); p != nil {
		return p.Telemetry.Telemetry()
	}
	return rf2data.TelemetryVehicle{}
}

// Extended returns the plugin status record.
func (c *Client) Extended() rf2data.Extended {
	var ext rf2data.Extended
	c.view(rf2data.KindExtended, func(r rf2data.Record) {
		ext = rf2data.DecodeExtended(r)
	})
	return ext
}

// ForceFeedback returns the steering force record.
func (c *Client) ForceFeedback() rf2data.ForceFeedback {
	var ffb rf2data.ForceFeedback
	c.view(rf2data.KindForceFeedback, func(r rf2data.Record) {
		ffb = rf2data.DecodeForceFeedback(r)
	})
	return ffb
}

// PlayerIndex returns the local player's scoring index, or -1. With an
// override set it is the pinned index, or -1 when no active vehicle holds it.
func (c *Client) PlayerIndex() int {
	if idx, on := c.pinnedIndex(); on {
		return idx
	}
	if p := c.engine.Player(); p != nil {
		return p.ScoringIndex
	}
	return rf2data.InvalidIndex
}

// PlayerTelemetryIndex returns the local player's telemetry index, or -1.
func (c *Client) PlayerTelemetryIndex() int {
	if p := c.engine.Player(); p != nil {
		return p.TelemetryIndex
	}
	return rf2data.InvalidIndex
}

// IsPlayer reports whether the scoring slot at index is the local player.
func (c *Client) IsPlayer(index int) bool {
	if idx, on := c.pinnedIndex(); on {
		return idx != rf2data.InvalidIndex && idx == index
	}
	var player bool
	c.view(rf2data.KindScoring, func(r rf2data.Record) {
		slot, _ := r.Slot(index)
		player = slot.IsPlayer()
	})
	return player
}

// IsPaused reports whether the player data is stale, either because the
// producer stopped updating or because the player could not be found.
func (c *Client) IsPaused() bool {
	return c.engine.Paused()
}

// IsFrozen reports whether the producer stopped advancing its scoring stamp.
func (c *Client) IsFrozen() bool {
	return c.engine.Frozen()
}

// VersionCheck validates the plugin version in the extended record.
func (c *Client) VersionCheck() rf2data.VersionStatus {
	return rf2data.CheckVersion(c.Extended())
}

// IsSharedMemoryAvailable reports whether a supported plugin is publishing.
func (c *Client) IsSharedMemoryAvailable() bool {
	return c.VersionCheck().Verified
}

// IsTrackLoaded reports whether a session has been started in the sim.
func (c *Client) IsTrackLoaded() bool {
	return c.Extended().SessionStarted
}

// IsOnTrack reports whether the player is in the car (realtime) rather than
// in the monitor.
func (c *Client) IsOnTrack() bool {
	return c.Extended().InRealtimeFC
}

// IsAIDriving reports whether the local AI drives the player's car.
func (c *Client) IsAIDriving() bool {
	return c.PlayerScoring().Control == rf2data.ControlLocalAI
}

// DriverName returns the player's driver name.
func (c *Client) DriverName() string {
	return c.PlayerScoring().DriverName
}

// VehicleName returns the player's vehicle name.
func (c *Client) VehicleName() string {
	return c.PlayerScoring().VehicleName
}

// Status is a point-in-time view of the synchronization state.
type Status struct {
	State            string    `json:"state"`
	Paused           bool      `json:"paused"`
	Frozen           bool      `json:"frozen"`
	PlayerIndex      int       `json:"playerIndex"`
	TelemetryIndex   int       `json:"telemetryIndex"`
	ScoringVersion   uint32    `json:"scoringVersion"`
	TelemetryVersion uint32    `json:"telemetryVersion"`
	CoherenceMisses  [4]uint64 `json:"coherenceMisses"`
	PollDelay        string    `json:"pollDelay"`
}

// Status returns the current synchronization state.
func (c *Client) Status() Status {
	st := Status{
		State:          c.engine.State().String(),
		Paused:         c.IsPaused(),
		Frozen:         c.IsFrozen(),
		PlayerIndex:    c.PlayerIndex(),
		TelemetryIndex: c.PlayerTelemetryIndex(),
		PollDelay:      c.engine.Delay().String(),
	}
	if set := c.engine.Records(); set != nil {
		st.ScoringVersion = set.Region(rf2data.KindScoring).Version()
		st.TelemetryVersion = set.Region(rf2data.KindTelemetry).Version()
		st.CoherenceMisses = set.Misses()
	}
	return st
}

func (c *Client) target() (rf2data.AccessMode, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.pid
}

// pinnedIndex returns the override index checked against the active
// vehicles of the last scoring snapshot.
func (c *Client) pinnedIndex() (int, bool) {
	idx, on := c.engine.PlayerOverride()
	if !on {
		return rf2data.InvalidIndex, false
	}
	c.view(rf2data.KindScoring, func(r rf2data.Record) {
		if idx >= r.NumVehicles() {
			idx = rf2data.InvalidIndex
		}
	})
	return idx, true
}

// view decodes under the region's read lock so a concurrent Stop cannot
// unmap a direct record mid-read. Nested views take scoring before telemetry.
func (c *Client) view(kind rf2data.Kind, fn func(rf2data.Record)) {
	if set := c.engine.Records(); set != nil {
		set.View(kind, fn)
		return
	}
	fn(rf2data.Record{Layout: rf2data.Layouts[kind]})
}

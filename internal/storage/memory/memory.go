// internal/storage/memory/memory.go
package memory

import (
	"sync"
	"time"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/pkg/core"
)

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	samples     []core.TelemetrySample
	laps        []core.LapRecord
	pauseEvents []core.PauseEvent

	idCounter      uint
	lastExportPath string
	lastExportMeta core.UploadMetadata
	now            func() time.Time
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
		now: time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session. A session still open is
// discarded without export.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	s.ID = b.idCounter
	cp := *s
	b.session = &cp

	// Reset all collections
	b.samples = nil
	b.laps = nil
	b.pauseEvents = nil

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrSessionNotStarted
	}
	if b.session.EndTime.IsZero() {
		b.session.EndTime = b.now()
	}

	err := b.exportJSON()
	b.session = nil
	return err
}

// Session returns a copy of the session being recorded.
func (b *Backend) Session() (core.Session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.session == nil {
		return core.Session{}, false
	}
	return *b.session, true
}

// RecordSample records a telemetry sample
func (b *Backend) RecordSample(s *core.TelemetrySample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrSessionNotStarted
	}
	b.samples = append(b.samples, *s)
	return nil
}

// RecordLap records a completed lap
func (b *Backend) RecordLap(l *core.LapRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrSessionNotStarted
	}
	b.laps = append(b.laps, *l)
	return nil
}

// RecordPauseEvent records a pause transition
func (b *Backend) RecordPauseEvent(e *core.PauseEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrSessionNotStarted
	}
	b.pauseEvents = append(b.pauseEvents, *e)
	return nil
}

// Counts returns the number of buffered samples, laps and pause events.
func (b *Backend) Counts() (samples, laps, pauses int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples), len(b.laps), len(b.pauseEvents)
}

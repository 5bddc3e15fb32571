// Package gormstorage implements the storage.Backend interface on any GORM
// database with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rf2tools/rf2sync/internal/database"
	"github.com/rf2tools/rf2sync/internal/model"
	"github.com/rf2tools/rf2sync/internal/model/convert"
	"github.com/rf2tools/rf2sync/internal/queue"
	"github.com/rf2tools/rf2sync/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB *gorm.DB
	// Open is called by Init when DB is nil.
	Open          func() (*gorm.DB, error)
	Logger        *slog.Logger
	Version       string
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Samples     *queue.Queue[model.TelemetrySample]
	Laps        *queue.Queue[model.Lap]
	PauseEvents *queue.Queue[model.PauseEvent]
}

func newQueues() *queues {
	return &queues{
		Samples:     queue.New[model.TelemetrySample](),
		Laps:        queue.New[model.Lap](),
		PauseEvents: queue.New[model.PauseEvent](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}
	done      chan struct{}
	flushMu   sync.Mutex
	now       func() time.Time
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
		now:    time.Now,
	}
}

// DB returns the connection, nil before Init.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init connects if needed, runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		if b.deps.Open == nil {
			return fmt.Errorf("no database configured")
		}
		db, err := b.deps.Open()
		if err != nil {
			return err
		}
		b.deps.DB = db
	}

	if err := database.Migrate(b.deps.DB, b.deps.Version); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.Logger.Info("Database setup complete", "dialect", b.deps.DB.Dialector.Name())

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine and writes what is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	<-b.done
	b.stopChan = nil
	return b.Flush()
}

// StartSession inserts the session row and assigns its ID to s.
// Rows still queued for a previous session are written first.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database configured")
	}
	if err := b.Flush(); err != nil {
		b.deps.Logger.Warn("Flushing previous session failed", "error", err)
	}

	row := convert.CoreToSession(*s)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new session: %w", err)
	}
	s.ID = row.ID
	b.sessionID.Store(uint64(row.ID))
	return nil
}

// EndSession writes the queued rows and stamps the session end time.
func (b *Backend) EndSession() error {
	id := uint(b.sessionID.Swap(0))
	if id == 0 {
		return core.ErrSessionNotStarted
	}

	flushErr := b.Flush()
	err := b.deps.DB.Model(&model.Session{}).Where("id = ?", id).Update("end_time", b.now()).Error
	if err != nil {
		err = fmt.Errorf("failed to close session %d: %w", id, err)
	}
	return errors.Join(flushErr, err)
}

// SessionID returns the ID rows are currently stamped with, 0 outside a session.
func (b *Backend) SessionID() uint {
	return uint(b.sessionID.Load())
}

// RecordSample converts and queues a telemetry sample.
func (b *Backend) RecordSample(s *core.TelemetrySample) error {
	id := b.SessionID()
	if id == 0 {
		return core.ErrSessionNotStarted
	}
	row := convert.CoreToTelemetrySample(*s)
	row.SessionID = id
	b.queues.Samples.Push(row)
	return nil
}

// RecordLap converts and queues a completed lap.
func (b *Backend) RecordLap(l *core.LapRecord) error {
	id := b.SessionID()
	if id == 0 {
		return core.ErrSessionNotStarted
	}
	row := convert.CoreToLap(*l)
	row.SessionID = id
	b.queues.Laps.Push(row)
	return nil
}

// RecordPauseEvent converts and queues a pause transition.
func (b *Backend) RecordPauseEvent(e *core.PauseEvent) error {
	id := b.SessionID()
	if id == 0 {
		return core.ErrSessionNotStarted
	}
	row := convert.CoreToPauseEvent(*e)
	row.SessionID = id
	b.queues.PauseEvents.Push(row)
	return nil
}

// QueueLengths reports the rows waiting for the writer.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"samples":     b.queues.Samples.Len(),
		"laps":        b.queues.Laps.Len(),
		"pauseEvents": b.queues.PauseEvents.Len(),
	}
}

// Flush writes every queue to the database now.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Samples, "telemetry samples"),
		writeQueue(b.deps.DB, b.queues.Laps, "laps"),
		writeQueue(b.deps.DB, b.queues.PauseEvents, "pause events"),
	)
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("error creating %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("error committing %s: %w", name, err)
	}
	return nil
}

// writerLoop periodically drains queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("DB writer cycle failed", "error", err)
				continue
			}
			b.deps.Logger.Debug("DB writer cycle", "duration", time.Since(start))
		}
	}
}

package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/rf2tools/rf2sync/internal/influx"
	"github.com/rf2tools/rf2sync/internal/session"
	"github.com/rf2tools/rf2sync/pkg/rf2sm"
)

// DefaultInterval is how often status.txt is rewritten.
const DefaultInterval = time.Second

// StatusFileName is written into Dependencies.OutputDir.
const StatusFileName = "status.txt"

// StatusSource reports the synchronization state.
type StatusSource interface {
	Status() rf2sm.Status
}

// PointWriter receives the periodic status point.
type PointWriter interface {
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Client         StatusSource
	SessionContext *session.Context
	// WriteQueues returns storage queue depths by name. Optional.
	WriteQueues func() map[string]int
	// Influx is optional.
	Influx    PointWriter
	OutputDir string
	Logger    *slog.Logger
	Interval  time.Duration
}

// Snapshot is one status report.
type Snapshot struct {
	Time        time.Time      `json:"time"`
	Track       string         `json:"track"`
	SessionType string         `json:"sessionType"`
	Recording   bool           `json:"recording"`
	Sync        rf2sm.Status   `json:"sync"`
	WriteQueues map[string]int `json:"writeQueues"`
}

// Queued sums all write queue depths.
func (s Snapshot) Queued() int {
	n := 0
	for _, v := range s.WriteQueues {
		n += v
	}
	return n
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SessionContext == nil {
		deps.SessionContext = session.NewContext()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// StatusPath returns the file the monitor writes.
func (s *Service) StatusPath() string {
	return filepath.Join(s.deps.OutputDir, StatusFileName)
}

// GetProgramStatus returns the current program status as printable lines
// and as a snapshot.
func (s *Service) GetProgramStatus() (output []string, snap Snapshot) {
	sess := s.deps.SessionContext.GetSession()
	snap = Snapshot{
		Time:        time.Now(),
		Track:       sess.TrackName,
		SessionType: sess.SessionType,
		Recording:   s.deps.SessionContext.Active(),
		Sync:        s.deps.Client.Status(),
		WriteQueues: map[string]int{},
	}
	if s.deps.WriteQueues != nil {
		snap.WriteQueues = s.deps.WriteQueues()
	}

	st := snap.Sync
	output = append(output,
		fmt.Sprintf("time: %s", snap.Time.UTC().Format(time.RFC3339)),
		fmt.Sprintf("state: %s", st.State),
		fmt.Sprintf("paused: %t frozen: %t", st.Paused, st.Frozen),
		fmt.Sprintf("player: scoring=%d telemetry=%d", st.PlayerIndex, st.TelemetryIndex),
		fmt.Sprintf("versions: scoring=%d telemetry=%d", st.ScoringVersion, st.TelemetryVersion),
		fmt.Sprintf("coherence misses: %v", st.CoherenceMisses),
		fmt.Sprintf("poll delay: %s", st.PollDelay),
		fmt.Sprintf("session: %s %s recording=%t", snap.Track, snap.SessionType, snap.Recording),
	)

	names := make([]string, 0, len(snap.WriteQueues))
	for name := range snap.WriteQueues {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		output = append(output, fmt.Sprintf("queue %s: %d", name, snap.WriteQueues[name]))
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(raw))

	return output, snap
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	statusFile, err := os.Create(s.StatusPath())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("creating status file: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer statusFile.Close()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "path", s.StatusPath())

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				lines, snap := s.GetProgramStatus()

				if err := writeLines(statusFile, lines); err != nil {
					logger.Error("Error writing status file", "error", err)
				}

				if s.deps.Influx != nil {
					point := influx.StatusPoint(snap.Sync, snap.Queued(), snap.Time)
					if err := s.deps.Influx.WritePoint(influx.BucketSyncStatus, point); err != nil {
						logger.Debug("Error writing status point", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

func writeLines(f *os.File, lines []string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the status monitor and waits for the last write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.isRunning = false
	done := s.done
	s.mu.Unlock()
	<-done
}

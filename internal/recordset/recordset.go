// Package recordset groups the four plugin regions and refreshes them together.
package recordset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rf2tools/rf2sync/internal/region"
	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// Logger is the logging surface used by the record set.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Set holds one region per record kind. Scoring and telemetry follow the
// requested access mode; extended and force feedback are always direct since
// they change rarely or are read for a single value.
type Set struct {
	regions   [4]*region.Region
	closeOnce sync.Once
	log       Logger
}

// Open maps all four regions. If any region fails the ones already opened are
// closed and the mapping error is returned.
func Open(opener shmem.Opener, mode rf2data.AccessMode, pid string, log Logger) (*Set, error) {
	if log == nil {
		log = nopLogger{}
	}
	s := &Set{log: log}

	modes := [4]rf2data.AccessMode{mode, mode, rf2data.DirectAccess, rf2data.DirectAccess}
	for i, layout := range rf2data.Layouts {
		r, err := region.Open(layout, opener, pid, modes[i], log)
		if err != nil {
			for _, opened := range s.regions[:i] {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("opening %s: %w", layout.Kind, err)
		}
		s.regions[i] = r
		log.Info("sharedmemory: ACTIVE", "region", layout.ID(), "access", modes[i].String())
	}
	return s, nil
}

// Refresh refreshes scoring, telemetry, extended and force feedback in that
// order and returns how many of them had a torn read this tick.
func (s *Set) Refresh() int {
	misses := 0
	for _, r := range s.regions {
		if !r.Refresh() {
			misses++
		}
	}
	return misses
}

// Scoring, Telemetry, Extended and ForceFeedback return the latest snapshots
// for the refreshing goroutine. Other goroutines use View.

// Scoring returns the latest scoring snapshot.
func (s *Set) Scoring() rf2data.Record { return s.regions[rf2data.KindScoring].Snapshot() }

// Telemetry returns the latest telemetry snapshot.
func (s *Set) Telemetry() rf2data.Record { return s.regions[rf2data.KindTelemetry].Snapshot() }

// Extended returns the latest extended snapshot.
func (s *Set) Extended() rf2data.Record { return s.regions[rf2data.KindExtended].Snapshot() }

// ForceFeedback returns the latest force feedback snapshot.
func (s *Set) ForceFeedback() rf2data.Record {
	return s.regions[rf2data.KindForceFeedback].Snapshot()
}

// View calls fn with the latest snapshot of kind while its region is held
// open. The record is only valid inside fn.
func (s *Set) View(kind rf2data.Kind, fn func(rf2data.Record)) {
	s.regions[kind].View(fn)
}

// Region returns the region for a record kind.
func (s *Set) Region(kind rf2data.Kind) *region.Region {
	return s.regions[kind]
}

// Misses returns the torn read count per region, in refresh order.
func (s *Set) Misses() [4]uint64 {
	var out [4]uint64
	for i, r := range s.regions {
		out[i] = r.Misses()
	}
	return out
}

// Close closes every region. Later calls are no-ops.
func (s *Set) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		for _, r := range s.regions {
			if err := r.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.log.Info("sharedmemory: CLOSED")
	})
	return errors.Join(errs...)
}

// Package region wraps one named shared memory mapping and publishes
// snapshots of it that are safe to read from any goroutine.
package region

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rf2tools/rf2sync/internal/shmem"
	"github.com/rf2tools/rf2sync/pkg/rf2data"
)

// Logger is the subset of *slog.Logger used by regions.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Region is one mapped record. Refresh and Close must be called from a single
// goroutine. Other goroutines read through View: in direct mode the snapshot
// is the mapping itself and is only valid while the read lock is held.
type Region struct {
	layout rf2data.Layout
	name   string
	log    Logger

	mu      sync.RWMutex // write held by Close while the mapping is released
	mapping shmem.Mapping
	closed  bool

	direct    atomic.Bool
	published atomic.Bool // live view already published in direct mode
	snapshot  atomic.Pointer[rf2data.Record]
	misses    atomic.Uint64
}

// Open maps the layout's region for the given producer id. The returned
// region always holds an initial snapshot, coherent or not, so Snapshot never
// returns nil data.
func Open(layout rf2data.Layout, opener shmem.Opener, pid string, mode rf2data.AccessMode, log Logger) (*Region, error) {
	if log == nil {
		log = nopLogger{}
	}
	name := shmem.MapName(layout.MapName, pid)

	mapping, err := opener.Open(name, layout.Size)
	if err != nil {
		if errors.Is(err, shmem.ErrMapping) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", shmem.ErrMapping, name, err)
	}
	if len(mapping.Bytes()) < layout.Size {
		_ = mapping.Close()
		return nil, fmt.Errorf("%w: %s: mapped %d bytes, need %d", shmem.ErrMapping, name, len(mapping.Bytes()), layout.Size)
	}

	r := &Region{
		layout:  layout,
		name:    name,
		log:     log,
		mapping: mapping,
	}
	initial := rf2data.Record{Layout: layout, Data: r.copyLive()}
	r.snapshot.Store(&initial)

	if mode == rf2data.DirectAccess {
		r.ReadUnchecked()
		r.publishLive()
	}

	log.Debug("region opened", "region", layout.ID(), "name", name, "access", r.Mode().String())
	return r, nil
}

// Layout returns the region's record layout.
func (r *Region) Layout() rf2data.Layout {
	return r.layout
}

// Mode reports whether the region reads the live mapping or coherent copies.
func (r *Region) Mode() rf2data.AccessMode {
	if r.direct.Load() {
		return rf2data.DirectAccess
	}
	return rf2data.CopyAccess
}

// ReadCoherent copies the whole record once and checks both update stamps on
// that copy. It returns false for a torn copy.
func (r *Region) ReadCoherent() ([]byte, bool) {
	data := r.copyLive()
	if data == nil {
		return nil, false
	}
	if !(rf2data.Record{Layout: r.layout, Data: data}).Coherent() {
		return nil, false
	}
	return data, true
}

// ReadUnchecked returns the live mapping without copying or checking it, and
// switches the region to direct mode until it is closed.
func (r *Region) ReadUnchecked() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.direct.Store(true)
	return r.mapping.Bytes()[:r.layout.Size]
}

// Refresh publishes a new snapshot. In copy mode a torn read keeps the
// previous snapshot and returns false.
func (r *Region) Refresh() bool {
	if r.Closed() {
		return false
	}
	if r.direct.Load() {
		r.publishLive()
		return true
	}
	data, ok := r.ReadCoherent()
	if !ok {
		r.misses.Add(1)
		return false
	}
	r.snapshot.Store(&rf2data.Record{Layout: r.layout, Data: data})
	return true
}

// Snapshot returns the last published record. In direct mode its data
// aliases the mapping, so only the refreshing goroutine may hold on to it.
func (r *Region) Snapshot() rf2data.Record {
	return *r.snapshot.Load()
}

// View calls fn with the last published record while Close is held off. fn
// must not retain the record's data or call back into the region.
func (r *Region) View(fn func(rf2data.Record)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(*r.snapshot.Load())
}

// Version returns the update end stamp of the last published snapshot.
func (r *Region) Version() uint32 {
	var v uint32
	r.View(func(rec rf2data.Record) { v = rec.VersionEnd() })
	return v
}

// Closed reports whether Close has run.
func (r *Region) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Misses returns the number of torn reads seen since Open.
func (r *Region) Misses() uint64 {
	return r.misses.Load()
}

// Close keeps a final private copy as the snapshot and releases the mapping.
// A busy mapping is logged and not reported. Close is idempotent.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}

	data := r.copyLiveLocked()
	if !(rf2data.Record{Layout: r.layout, Data: data}).Coherent() {
		data = nil
	}
	switch {
	case data != nil:
		r.snapshot.Store(&rf2data.Record{Layout: r.layout, Data: data})
	case r.direct.Load():
		// The published snapshot points into the mapping; detach it even if torn.
		r.snapshot.Store(&rf2data.Record{Layout: r.layout, Data: r.copyLiveLocked()})
	}

	r.closed = true
	err := r.mapping.Close()
	r.mapping = nil
	if err != nil {
		if errors.Is(err, shmem.ErrBusy) {
			r.log.Warn("region still referenced on close", "region", r.layout.ID(), "error", err)
			return nil
		}
		return fmt.Errorf("closing %s: %w", r.name, err)
	}
	r.log.Debug("region closed", "region", r.layout.ID())
	return nil
}

func (r *Region) publishLive() {
	if r.published.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.snapshot.Store(&rf2data.Record{Layout: r.layout, Data: r.mapping.Bytes()[:r.layout.Size]})
	r.published.Store(true)
}

func (r *Region) copyLive() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyLiveLocked()
}

func (r *Region) copyLiveLocked() []byte {
	if r.closed || r.mapping == nil {
		return nil
	}
	data := make([]byte, r.layout.Size)
	copy(data, r.mapping.Bytes())
	return data
}

// Package procwatch tells whether the simulator process is running.
package procwatch

import (
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/rf2tools/rf2sync/internal/config"
)

// Lister enumerates processes.
type Lister interface {
	Pids() ([]int32, error)
	Name(pid int32) (string, error)
}

// SystemLister reads the process table through gopsutil.
type SystemLister struct{}

// Pids returns every running pid.
func (SystemLister) Pids() ([]int32, error) {
	return process.Pids()
}

// Name returns the executable name of pid.
func (SystemLister) Name(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

// Watcher rate-limits process lookups. Scanning the whole process table is
// slow, so a missing simulator is looked for every FindEvery calls and a
// found one is re-checked every FoundEvery calls.
type Watcher struct {
	cfg       config.ProcessConfig
	available func() bool
	lister    Lister

	mu      sync.Mutex
	pid     int32
	counter int
	running bool
}

// New creates a watcher. available reports whether the shared memory is
// valid, which counts as running without touching the process table.
func New(cfg config.ProcessConfig, available func() bool, lister Lister) *Watcher {
	if cfg.Name == "" {
		cfg.Name = "rFactor2.exe"
	}
	if cfg.FindEvery <= 0 {
		cfg.FindEvery = 200
	}
	if cfg.FoundEvery <= 0 {
		cfg.FoundEvery = 5
	}
	if lister == nil {
		lister = SystemLister{}
	}
	if available == nil {
		available = func() bool { return false }
	}
	return &Watcher{cfg: cfg, available: available, lister: lister}
}

// PID returns the last found simulator pid, or 0.
func (w *Watcher) PID() int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pid
}

// IsRunning reports whether the simulator is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.counter == 0 {
		// first call looks right away
		w.counter = w.cfg.FindEvery
	}

	switch {
	case w.available():
		w.running = true
	case w.pid != 0:
		if w.counter >= w.cfg.FoundEvery {
			w.counter = 0
			name, err := w.lister.Name(w.pid)
			if err != nil {
				w.pid = 0
				w.running = false
				w.counter++
				return false
			}
			w.running = w.matches(name)
		}
	default:
		if w.counter >= w.cfg.FindEvery {
			w.counter = 0
			w.pid = w.find()
			w.running = false
		}
	}
	w.counter++
	return w.running
}

func (w *Watcher) find() int32 {
	pids, err := w.lister.Pids()
	if err != nil {
		return 0
	}
	for _, pid := range pids {
		name, err := w.lister.Name(pid)
		if err != nil {
			continue
		}
		if w.matches(name) {
			return pid
		}
	}
	return 0
}

func (w *Watcher) matches(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), strings.ToLower(w.cfg.Name))
}

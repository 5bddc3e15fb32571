// Package shmem opens the named shared memory mappings the simulator plugin
// writes into.
package shmem

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrMapping is returned when a mapping cannot be created or opened.
	ErrMapping = errors.New("shared memory mapping failed")

	// ErrBusy is returned by Close when the mapping still has outstanding
	// views. It is expected during concurrent teardown.
	ErrBusy = errors.New("shared memory mapping busy")
)

// Mapping is one mapped region. Bytes returns the live memory; it must not be
// used after Close.
type Mapping interface {
	Bytes() []byte
	Close() error
}

// Opener opens, creating zero-filled if absent, a named mapping of at least
// size bytes.
type Opener interface {
	Open(name string, size int) (Mapping, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(name string, size int) (Mapping, error)

// Open calls f(name, size).
func (f OpenerFunc) Open(name string, size int) (Mapping, error) {
	return f(name, size)
}

// DefaultDir is where POSIX shared memory files live.
const DefaultDir = "/dev/shm"

// OSOpener maps named shared memory through the operating system. Dir is only
// used on unix platforms.
type OSOpener struct {
	Dir string
}

func mappingError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMapping, name, err)
}

// Heap is an in-process stand-in for OS shared memory. Regions opened with the
// same name share one backing slice, so a producer and a reader in the same
// process see each other's writes.
type Heap struct {
	mu      sync.Mutex
	regions map[string][]byte
}

// NewHeap creates an empty heap store.
func NewHeap() *Heap {
	return &Heap{regions: make(map[string][]byte)}
}

// Open returns a mapping over the named region, growing it if it is shorter
// than size.
func (h *Heap) Open(name string, size int) (Mapping, error) {
	if size <= 0 {
		return nil, mappingError(name, fmt.Errorf("invalid size %d", size))
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := h.regions[name]
	if len(buf) < size {
		grown := make([]byte, size)
		copy(grown, buf)
		buf = grown
		h.regions[name] = buf
	}
	return heapMapping{buf: buf}, nil
}

// Names lists the regions that have been opened.
func (h *Heap) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.regions))
	for name := range h.regions {
		names = append(names, name)
	}
	return names
}

type heapMapping struct {
	buf []byte
}

func (m heapMapping) Bytes() []byte { return m.buf }
func (m heapMapping) Close() error  { return nil }

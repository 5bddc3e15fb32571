//go:build unix

package shmem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// MapName returns the OS level name of a mapping. POSIX files are shared
// between all simulator instances, so the producer id is ignored.
func MapName(base, pid string) string {
	return base
}

// Open maps <Dir>/<name>, creating and zero-extending the file to size bytes
// when it is missing or shorter.
func (o OSOpener) Open(name string, size int) (Mapping, error) {
	if size <= 0 {
		return nil, mappingError(name, fmt.Errorf("invalid size %d", size))
	}
	dir := o.Dir
	if dir == "" {
		dir = DefaultDir
	}
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, mappingError(name, err)
	}
	// The mapping outlives the descriptor.
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, mappingError(name, err)
	}
	if info.Size() < int64(size) {
		if err := file.Truncate(int64(size)); err != nil {
			return nil, mappingError(name, fmt.Errorf("resize to %d: %w", size, err))
		}
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, mappingError(name, fmt.Errorf("mmap: %w", err))
	}
	return &unixMapping{mem: mem, path: path}, nil
}

type unixMapping struct {
	mem  []byte
	path string
}

func (m *unixMapping) Bytes() []byte { return m.mem }

func (m *unixMapping) Close() error {
	if m.mem == nil {
		return nil
	}
	if err := unix.Munmap(m.mem); err != nil {
		if errors.Is(err, unix.EBUSY) {
			return fmt.Errorf("%w: %s: %v", ErrBusy, m.path, err)
		}
		return fmt.Errorf("munmap %s: %w", m.path, err)
	}
	m.mem = nil
	return nil
}

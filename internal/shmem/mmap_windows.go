//go:build windows

package shmem

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// MapName returns the OS level name of a mapping. Dedicated servers publish
// one set of mappings per process, suffixed with the process id.
func MapName(base, pid string) string {
	return base + pid
}

// Open creates or opens a named, pagefile backed file mapping.
func (o OSOpener) Open(name string, size int) (Mapping, error) {
	if size <= 0 {
		return nil, mappingError(name, fmt.Errorf("invalid size %d", size))
	}
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, mappingError(name, err)
	}

	handle, err := windows.CreateFileMapping(
		windows.InvalidHandle,
		nil,
		windows.PAGE_READWRITE,
		0,
		uint32(size),
		namePtr,
	)
	if err != nil {
		return nil, mappingError(name, fmt.Errorf("CreateFileMapping: %w", err))
	}

	addr, err := windows.MapViewOfFile(handle, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(handle)
		return nil, mappingError(name, fmt.Errorf("MapViewOfFile: %w", err))
	}

	return &windowsMapping{
		handle: handle,
		addr:   addr,
		mem:    unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		name:   name,
	}, nil
}

type windowsMapping struct {
	handle windows.Handle
	addr   uintptr
	mem    []byte
	name   string
}

func (m *windowsMapping) Bytes() []byte { return m.mem }

func (m *windowsMapping) Close() error {
	if m.mem == nil {
		return nil
	}
	if err := windows.UnmapViewOfFile(m.addr); err != nil {
		if errors.Is(err, windows.ERROR_BUSY) {
			return fmt.Errorf("%w: %s: %v", ErrBusy, m.name, err)
		}
		return fmt.Errorf("UnmapViewOfFile %s: %w", m.name, err)
	}
	m.mem = nil
	return windows.CloseHandle(m.handle)
}

package buffer

import (
	"errors"
	"fmt"
	"os"
)

// ErrMmapUnsupported is returned on platforms without memory-mapping support
var ErrMmapUnsupported = errors.New("buffer: mmap not supported on this platform")

// Mapped is a memory-mapped file exposed as a buffer
type Mapped struct {
	data     []byte
	f        *os.File
	writable bool
}

// OpenMapped maps an existing file. When writable is false the mapping is
// read-only and Buffer returns a *ReadOnly.
func OpenMapped(path string, writable bool) (*Mapped, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("mmap %s: file is empty", path)
	}

	data, err := mmap(f, int(fi.Size()), writable)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Mapped{data: data, f: f, writable: writable}, nil
}

// CreateMapped creates (or extends) the file at path to size bytes and maps it read-write
func CreateMapped(path string, size int) (*Mapped, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap %s: invalid size %d", path, size)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		size = int(fi.Size())
	}

	data, err := mmap(f, size, true)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Mapped{data: data, f: f, writable: true}, nil
}

// Buffer returns a view over the mapped pages
func (m *Mapped) Buffer() Reader {
	if m.writable {
		return NewMutable(m.data)
	}
	return NewReadOnly(m.data)
}

// Writable reports whether the mapping accepts writes
func (m *Mapped) Writable() bool {
	return m.writable
}

// Len returns the size of the mapping
func (m *Mapped) Len() int {
	return len(m.data)
}

// Sync flushes dirty pages of a writable mapping to the file
func (m *Mapped) Sync() error {
	if m == nil || m.data == nil || !m.writable {
		return nil
	}
	return msync(m.data)
}

// Close unmaps the memory and closes the underlying file
func (m *Mapped) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.data != nil {
		err = munmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}

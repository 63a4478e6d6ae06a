//go:build linux || darwin

package heap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileStore is a Store backed by a memory-mapped file.
//
// Growth extends the file with ftruncate and remaps it, so Bytes() must be
// re-read after every Sbrk. The new bytes are zero-filled by the OS.
type FileStore struct {
	f    *os.File
	path string
	data []byte // nil while the file is empty; mmap rejects zero-length maps
	size int
	max  int
}

// OpenFileStore creates (or truncates) path and returns an empty store that
// refuses to grow beyond limit bytes. limit <= 0 selects DefaultMaxHeap.
func OpenFileStore(path string, limit int) (*FileStore, error) {
	if limit <= 0 {
		limit = DefaultMaxHeap
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &FileStore{f: f, path: path, max: limit}, nil
}

// Sbrk grows the file by n bytes and remaps it.
func (s *FileStore) Sbrk(n int) (int, error) {
	if s.f == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, ErrNegativeIncrement
	}
	old := s.size
	if n > s.max-old {
		return 0, fmt.Errorf("sbrk(%d) at %d of %d bytes: %w", n, old, s.max, ErrNoMemory)
	}
	if n == 0 {
		return old, nil
	}
	if err := s.remap(old + n); err != nil {
		return 0, err
	}
	return old, nil
}

// mmap is swapped out by tests to exercise the failure path.
var mmap = unix.Mmap

// remap resizes the file and the mapping. The old mapping is released only
// once the new one exists, so on failure Bytes() still returns a live view of
// the old size.
func (s *FileStore) remap(newSize int) error {
	if err := s.f.Truncate(int64(newSize)); err != nil {
		_ = s.f.Truncate(int64(s.size))
		return fmt.Errorf("heap: failed to extend file: %w", err)
	}

	data, err := mmap(int(s.f.Fd()), 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = s.f.Truncate(int64(s.size))
		return fmt.Errorf("heap: failed to remap after grow: %w", err)
	}

	if s.data != nil {
		// Both mappings share the file pages; an unmap failure only leaks
		// address space.
		_ = unix.Munmap(s.data)
	}
	s.data = data
	s.size = newSize
	return nil
}

// Lo returns 0.
func (s *FileStore) Lo() int { return 0 }

// Hi returns the offset of the last valid byte.
func (s *FileStore) Hi() int { return s.size - 1 }

// Size returns the current break.
func (s *FileStore) Size() int { return s.size }

// Bytes returns the mapping.
func (s *FileStore) Bytes() []byte { return s.data }

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// SyncRange flushes [off, off+n) with msync. The range is widened to page
// boundaries.
func (s *FileStore) SyncRange(off, n int) error {
	if s.f == nil {
		return ErrClosed
	}
	if n <= 0 || s.data == nil {
		return nil
	}
	if off < 0 || off+n > s.size {
		return fmt.Errorf("heap: sync range [%d,%d) outside %d bytes", off, off+n, s.size)
	}
	page := os.Getpagesize()
	start := off / page * page
	end := min((off+n+page-1)/page*page, s.size)
	return msyncRange(s.data, start, end)
}

// Sync flushes the whole mapping and the file metadata.
func (s *FileStore) Sync() error {
	if s.f == nil {
		return ErrClosed
	}
	if s.data != nil {
		if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("heap: msync: %w", err)
		}
	}
	return s.f.Sync()
}

// Reset unmaps the region and truncates the file to zero.
func (s *FileStore) Reset() error {
	if s.f == nil {
		return ErrClosed
	}
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			return fmt.Errorf("heap: failed to unmap on reset: %w", err)
		}
		s.data = nil
	}
	s.size = 0
	return s.f.Truncate(0)
}

// Close unmaps the region and closes the file. The file is left on disk.
func (s *FileStore) Close() error {
	var err error
	if s.data != nil {
		_ = unix.Munmap(s.data)
		s.data = nil
	}
	if s.f != nil {
		err = s.f.Close()
		s.f = nil
	}
	return err
}

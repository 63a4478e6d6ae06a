//go:build !linux && !darwin

package heap

import (
	"fmt"
	"os"
)

// FileStore is a Store whose contents are persisted to a file.
//
// Without mmap the region lives in memory; Sync and Close write it back.
type FileStore struct {
	f    *os.File
	path string
	data []byte
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

// Sbrk grows the region by n bytes.
func (s *FileStore) Sbrk(n int) (int, error) {
	if s.f == nil {
		return 0, ErrClosed
	}
	if n < 0 {
		return 0, ErrNegativeIncrement
	}
	old := len(s.data)
	if n > s.max-old {
		return 0, fmt.Errorf("sbrk(%d) at %d of %d bytes: %w", n, old, s.max, ErrNoMemory)
	}
	if err := s.f.Truncate(int64(old + n)); err != nil {
		return 0, fmt.Errorf("heap: failed to extend file: %w", err)
	}
	s.data = append(s.data, make([]byte, n)...)
	return old, nil
}

// Lo returns 0.
func (s *FileStore) Lo() int { return 0 }

// Hi returns the offset of the last valid byte.
func (s *FileStore) Hi() int { return len(s.data) - 1 }

// Size returns the current break.
func (s *FileStore) Size() int { return len(s.data) }

// Bytes returns the region.
func (s *FileStore) Bytes() []byte { return s.data }

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// SyncRange writes [off, off+n) back to the file.
func (s *FileStore) SyncRange(off, n int) error {
	if s.f == nil {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(s.data) {
		return fmt.Errorf("heap: sync range [%d,%d) outside %d bytes", off, off+n, len(s.data))
	}
	_, err := s.f.WriteAt(s.data[off:off+n], int64(off))
	return err
}

// Sync writes the whole region back and syncs the file.
func (s *FileStore) Sync() error {
	if err := s.SyncRange(0, len(s.data)); err != nil {
		return err
	}
	return s.f.Sync()
}

// Reset truncates the region and the file to zero.
func (s *FileStore) Reset() error {
	if s.f == nil {
		return ErrClosed
	}
	s.data = s.data[:0]
	return s.f.Truncate(0)
}

// Close writes the region back and closes the file.
func (s *FileStore) Close() error {
	if s.f == nil {
		return nil
	}
	werr := s.Sync()
	err := s.f.Close()
	s.f = nil
	if werr != nil {
		return werr
	}
	return err
}

package heap

import "fmt"

// MemStore is an in-process Store backed by a byte slice.
//
// It behaves like the malloc lab memlib: a fixed ceiling, no shrinking, and
// Reset to rewind the break between runs.
type MemStore struct {
	data []byte
	max  int
}

// NewMemStore returns an empty store that refuses to grow beyond limit bytes.
// limit <= 0 selects DefaultMaxHeap.
func NewMemStore(limit int) *MemStore {
	if limit <= 0 {
		limit = DefaultMaxHeap
	}
	return &MemStore{max: limit}
}

// Sbrk grows the region by n bytes.
func (m *MemStore) Sbrk(n int) (int, error) {
	if n < 0 {
		return 0, ErrNegativeIncrement
	}
	old := len(m.data)
	if n > m.max-old {
		return 0, fmt.Errorf("sbrk(%d) at %d of %d bytes: %w", n, old, m.max, ErrNoMemory)
	}
	need := old + n
	if need > cap(m.data) {
		// Double to amortize copies, never past the ceiling.
		newCap := min(max(need, 2*cap(m.data), 4096), m.max)
		grown := make([]byte, old, newCap)
		copy(grown, m.data)
		m.data = grown
	}
	m.data = m.data[:need]
	return old, nil
}

// Lo returns 0.
func (m *MemStore) Lo() int { return 0 }

// Hi returns the offset of the last valid byte.
func (m *MemStore) Hi() int { return len(m.data) - 1 }

// Size returns the current break.
func (m *MemStore) Size() int { return len(m.data) }

// Bytes returns the region.
func (m *MemStore) Bytes() []byte { return m.data }

// Max returns the ceiling.
func (m *MemStore) Max() int { return m.max }

// Reset rewinds the break to zero and clears the old contents so a new
// allocator can reuse the store.
func (m *MemStore) Reset() {
	clear(m.data[:cap(m.data)])
	m.data = m.data[:0]
}

// SyncRange is a no-op; memory is the medium.
func (m *MemStore) SyncRange(off, n int) error {
	if off < 0 || n < 0 || off+n > len(m.data) {
		return fmt.Errorf("heap: sync range [%d,%d) outside %d bytes", off, off+n, len(m.data))
	}
	return nil
}

package heap

import "errors"

// DefaultMaxHeap is the ceiling used when a store is created with max <= 0.
const DefaultMaxHeap = 20 << 20

var (
	// ErrNoMemory indicates the store cannot grow any further.
	ErrNoMemory = errors.New("heap: out of memory")

	// ErrNegativeIncrement indicates an attempt to shrink the store.
	ErrNegativeIncrement = errors.New("heap: negative increment (store never shrinks)")

	// ErrClosed indicates use of a store after Close.
	ErrClosed = errors.New("heap: store is closed")
)

// Store is a contiguous, grow-only byte region.
type Store interface {
	// Sbrk grows the region by n bytes and returns the offset of the first
	// new byte (the previous size). It fails without side effects.
	Sbrk(n int) (int, error)

	// Lo returns the offset of the first byte. Always zero.
	Lo() int

	// Hi returns the offset of the last valid byte, or -1 when empty.
	Hi() int

	// Size returns the number of valid bytes.
	Size() int

	// Bytes returns the region. The slice is invalidated by Sbrk.
	Bytes() []byte
}

// Syncer is implemented by stores whose contents can be made durable.
// heap/dirty uses it to flush tracked ranges.
type Syncer interface {
	// SyncRange flushes [off, off+n) to the underlying medium.
	SyncRange(off, n int) error
}

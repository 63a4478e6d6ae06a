package format

import "fmt"

// Header is the decoded form of a boundary tag (block header or footer).
//
// Free blocks carry an identical footer in their last word; allocated blocks
// carry only the header and the next block's PrevAlloc bit stands in for the
// missing footer.
type Header struct {
	Size      int  // Total block size including header (and footer when free)
	PrevAlloc bool // Allocation state of the block immediately below
	Alloc     bool // True when the block belongs to a caller
}

// Pack encodes a header into its on-heap word.
func Pack(size int, prevAlloc, alloc bool) uint64 {
	w := uint64(size) &^ flagMask
	if prevAlloc {
		w |= prevAllocBit
	}
	if alloc {
		w |= allocBit
	}
	return w
}

// Unpack decodes an on-heap word.
func Unpack(w uint64) Header {
	return Header{
		Size:      int(w &^ flagMask),
		PrevAlloc: w&prevAllocBit != 0,
		Alloc:     w&allocBit != 0,
	}
}

// Word re-encodes h.
func (h Header) Word() uint64 {
	return Pack(h.Size, h.PrevAlloc, h.Alloc)
}

// ReadHeader decodes the tag stored at off.
func ReadHeader(b []byte, off int) Header {
	return Unpack(ReadU64(b, off))
}

// WriteHeader encodes h at off.
func WriteHeader(b []byte, off int, h Header) {
	PutU64(b, off, h.Word())
}

// WithSize returns w with its size field replaced and flags kept.
func WithSize(w uint64, size int) uint64 {
	return uint64(size)&^flagMask | w&flagMask
}

// WithPrevAlloc returns w with the prev-alloc bit set or cleared.
func WithPrevAlloc(w uint64, prevAlloc bool) uint64 {
	if prevAlloc {
		return w | prevAllocBit
	}
	return w &^ prevAllocBit
}

// WithAlloc returns w with the allocated bit set or cleared.
func WithAlloc(w uint64, alloc bool) uint64 {
	if alloc {
		return w | allocBit
	}
	return w &^ allocBit
}

// ReadHeaderChecked is ReadHeader with a bounds check, for walkers that must
// survive a corrupted heap.
func ReadHeaderChecked(b []byte, off int) (Header, error) {
	if off < 0 || off+WordSize > len(b) {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrTruncated)
	}
	return ReadHeader(b, off), nil
}

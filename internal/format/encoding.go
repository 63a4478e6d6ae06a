package format

import "encoding/binary"

// Binary encoding utilities for little-endian heap words.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines
// these calls and elides the bounds checks it can prove, so there is no
// reason to reach for unsafe here.

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutOffset stores a heap offset (free-list link) at off. Zero is the nil link.
func PutOffset(b []byte, off int, v int) {
	PutU64(b, off, uint64(v))
}

// ReadOffset loads a heap offset (free-list link) stored at off.
func ReadOffset(b []byte, off int) int {
	return int(ReadU64(b, off))
}

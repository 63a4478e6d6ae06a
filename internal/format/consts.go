// Package format holds the on-heap word layout shared by the allocator and the
// tools built around it. The goal is to keep every byte-level decision (word
// width, boundary-tag bit packing, alignment) in one place so higher-level
// packages only ever talk in offsets and sizes.
package format

const (
	// WordSize is the width of a header, footer, or free-list link word.
	WordSize = 8

	// DoubleWordSize is the alignment unit. Block sizes and payload offsets
	// are always multiples of it.
	DoubleWordSize = 2 * WordSize

	// PointerSize is the width of an intrusive free-list link. Links are
	// heap-relative offsets stored as full words.
	PointerSize = WordSize

	// Alignment is the payload alignment guaranteed to callers.
	Alignment = DoubleWordSize

	// AlignmentMask is used by the Align helpers.
	AlignmentMask = Alignment - 1

	// MinBlockSize is the smallest block that can be free: header, pred and
	// succ links, and footer.
	MinBlockSize = DoubleWordSize + 2*PointerSize

	// PrologueSize is the size of the always-allocated sentinel block at the
	// bottom of the heap.
	PrologueSize = DoubleWordSize

	// InitialHeapSize is the image laid down by init: one padding word, the
	// prologue (header + body word), and the epilogue header.
	InitialHeapSize = 4 * WordSize
)

// Header word bit layout (little-endian, 64 bits):
//
//	Bits   Description
//	0      allocated
//	1      previous block allocated
//	2      reserved (zero)
//	3..63  block size; always a multiple of DoubleWordSize
const (
	allocBit     uint64 = 0x1
	prevAllocBit uint64 = 0x2
	flagMask     uint64 = 0x7
)

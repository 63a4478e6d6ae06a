package mm

import "fmt"

// Ptr is the heap-relative offset of an allocation's payload.
type Ptr int

// Nil is the null pointer.
const Nil Ptr = 0

// IsNil reports whether p is Nil.
func (p Ptr) IsNil() bool { return p == Nil }

// String formats p as a hex offset.
func (p Ptr) String() string {
	if p == Nil {
		return "nil"
	}
	return fmt.Sprintf("%#x", int(p))
}

// BlockInfo describes one block seen by Blocks.
type BlockInfo struct {
	Ptr       Ptr  // Payload offset
	Size      int  // Total block size including boundary tags
	Alloc     bool // In use by a caller
	PrevAlloc bool // prev_alloc bit from the header
	Bucket    int  // Index bucket for free blocks, -1 when allocated
}

// Usable returns the payload capacity of the block.
func (b BlockInfo) Usable() int {
	return b.Size - wsize
}

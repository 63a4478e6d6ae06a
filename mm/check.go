package mm

import (
	"fmt"

	"github.com/joshuapare/segalloc/internal/format"
)

// Check error kinds.
const (
	KindAlignment       = "alignment"
	KindSize            = "size"
	KindBounds          = "bounds"
	KindPrologue        = "prologue"
	KindEpilogue        = "epilogue"
	KindBoundaryTag     = "boundary-tag"
	KindPrevAlloc       = "prev-alloc"
	KindCoalesce        = "coalesce"
	KindIndexMembership = "index-membership"
	KindIndexLink       = "index-link"
	KindIndexBounds     = "index-bounds"
	KindIndexAllocated  = "index-allocated"
	KindIndexOrder      = "index-order"
)

// CheckError describes the first inconsistency Check found.
type CheckError struct {
	Kind    string
	Message string
	Offset  int // payload offset of the offending block, -1 if N/A
	Details map[string]any
}

func (e *CheckError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Kind, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap makes every CheckError match ErrCorrupt.
func (e *CheckError) Unwrap() error { return ErrCorrupt }

func checkErr(kind string, off int, msg string, args ...any) *CheckError {
	return &CheckError{Kind: kind, Offset: off, Message: fmt.Sprintf(msg, args...)}
}

// Check verifies the heap and the index:
//   - blocks tile the heap from the prologue to the epilogue, 16-byte aligned
//   - every prev_alloc bit matches the block below
//   - every free block has a matching footer and no free neighbour
//   - every index entry is a free block of the right bucket, linked both ways
//   - every free block is indexed exactly once
//
// It returns nil or a *CheckError. Check never panics on a corrupted heap.
func (a *Allocator) Check() error {
	if !a.ready {
		return ErrNotInitialized
	}
	heapSize := a.store.Size()
	buf := a.buf[:heapSize]

	indexed, err := a.checkIndex(buf, heapSize)
	if err != nil {
		return err
	}

	pro, err := format.ReadHeaderChecked(buf, hdrp(prologueBP))
	if err != nil {
		return checkErr(KindPrologue, prologueBP, "%v", err)
	}
	if pro.Size != format.PrologueSize || pro.PrevAlloc || !pro.Alloc {
		return checkErr(KindPrologue, prologueBP, "bad prologue header %+v", pro)
	}

	prevAlloc := true
	free := 0
	bp := firstBlock
	for {
		h, err := format.ReadHeaderChecked(buf, hdrp(bp))
		if err != nil {
			return checkErr(KindBounds, bp, "block walk left the heap: %v", err)
		}

		if h.Size == 0 {
			if !h.Alloc {
				return checkErr(KindEpilogue, bp, "epilogue not marked allocated")
			}
			if hdrp(bp) != heapSize-wsize {
				return checkErr(KindEpilogue, bp, "zero-size block at %#x before end of heap %#x", hdrp(bp), heapSize)
			}
			if h.PrevAlloc != prevAlloc {
				return checkErr(KindPrevAlloc, bp, "epilogue prev_alloc=%t, block below alloc=%t", h.PrevAlloc, prevAlloc)
			}
			break
		}

		if !format.IsAligned(bp) {
			return checkErr(KindAlignment, bp, "payload not %d-byte aligned", format.Alignment)
		}
		if h.Size%dsize != 0 || h.Size < minBlock {
			return checkErr(KindSize, bp, "invalid block size %d", h.Size)
		}
		if bp+h.Size > heapSize {
			return checkErr(KindBounds, bp, "block of %d bytes runs past end of heap %#x", h.Size, heapSize)
		}
		if h.PrevAlloc != prevAlloc {
			return checkErr(KindPrevAlloc, bp, "prev_alloc=%t, block below alloc=%t", h.PrevAlloc, prevAlloc)
		}

		if !h.Alloc {
			if !prevAlloc {
				return checkErr(KindCoalesce, bp, "free block follows a free block")
			}
			ftr := bp + h.Size - dsize
			if hw, fw := format.ReadU64(buf, hdrp(bp)), format.ReadU64(buf, ftr); hw != fw {
				e := checkErr(KindBoundaryTag, bp, "header %#x does not match footer %#x", hw, fw)
				e.Details = map[string]any{"header": hw, "footer": fw}
				return e
			}
			bucket, ok := indexed[bp]
			if !ok {
				return checkErr(KindIndexMembership, bp, "free block of %d bytes is not indexed", h.Size)
			}
			if want := BucketOf(h.Size); bucket != want {
				return checkErr(KindIndexMembership, bp, "free block in bucket %d, want %d", bucket, want)
			}
			free++
		}

		prevAlloc = h.Alloc
		bp += h.Size
	}

	if free != len(indexed) {
		for off := range indexed {
			if h := format.ReadHeader(buf, hdrp(off)); h.Alloc || h.Size == 0 {
				return checkErr(KindIndexMembership, off, "indexed block is not a heap block")
			}
		}
		return checkErr(KindIndexMembership, -1, "%d free blocks in heap, %d in index", free, len(indexed))
	}
	return nil
}

// checkIndex walks every bucket and returns payload offset -> bucket.
func (a *Allocator) checkIndex(buf []byte, heapSize int) (map[int]int, error) {
	indexed := make(map[int]int)
	limit := heapSize / minBlock

	for i := range NumLists {
		lo, hi := BucketRange(i)
		pred, prevSize := 0, 0
		n := 0
		for bp := a.lists[i]; bp != 0; bp = format.ReadOffset(buf, bp) {
			if bp < firstBlock || bp+2*wsize > heapSize || !format.IsAligned(bp) {
				return nil, checkErr(KindIndexLink, bp, "bucket %d links to invalid offset", i)
			}
			if _, dup := indexed[bp]; dup {
				return nil, checkErr(KindIndexMembership, bp, "block reached twice from the index (bucket %d)", i)
			}
			if n++; n > limit {
				return nil, checkErr(KindIndexLink, bp, "bucket %d does not terminate", i)
			}

			h := format.ReadHeader(buf, hdrp(bp))
			if h.Alloc {
				return nil, checkErr(KindIndexAllocated, bp, "allocated block in bucket %d", i)
			}
			if payload := h.Size - wsize; payload < lo || (hi >= 0 && payload > hi) {
				e := checkErr(KindIndexBounds, bp, "payload %d outside bucket %d range", payload, i)
				e.Details = map[string]any{"bucket": i, "min": lo, "max": hi}
				return nil, e
			}
			if got := format.ReadOffset(buf, bp+wsize); got != pred {
				return nil, checkErr(KindIndexLink, bp, "pred link %#x, want %#x", got, pred)
			}
			if a.opts.InsertionOrder == Ascending && h.Size < prevSize {
				return nil, checkErr(KindIndexOrder, bp, "size %d after %d in bucket %d", h.Size, prevSize, i)
			}

			indexed[bp] = i
			pred, prevSize = bp, h.Size
		}
		if n != a.listLen[i] {
			return nil, checkErr(KindIndexLink, -1, "bucket %d holds %d blocks, counted %d", i, n, a.listLen[i])
		}
	}
	return indexed, nil
}

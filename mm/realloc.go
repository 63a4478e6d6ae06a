package mm

import (
	"fmt"

	"github.com/joshuapare/segalloc/internal/format"
)

// ReallocPath names the strategy that satisfied a Realloc.
type ReallocPath int

const (
	// ReallocInPlace: the block already fit (possibly shrunk).
	ReallocInPlace ReallocPath = iota
	// ReallocAbsorb: the free block above was merged in.
	ReallocAbsorb
	// ReallocRelocate: moved into an existing free block.
	ReallocRelocate
	// ReallocExtend: the heap was grown directly under the block.
	ReallocExtend
	// ReallocFallback: moved into a freshly extended block.
	ReallocFallback

	NumReallocPaths
)

var reallocPathNames = [NumReallocPaths]string{
	"in-place", "absorb", "relocate", "extend", "fallback",
}

// String returns the path name.
func (p ReallocPath) String() string {
	if p < 0 || p >= NumReallocPaths {
		return fmt.Sprintf("ReallocPath(%d)", int(p))
	}
	return reallocPathNames[p]
}

// Realloc resizes an allocation, preserving its payload up to the smaller of
// the old usable size and size.
//
// Realloc(Nil, n) is Alloc(n). Realloc(p, 0) frees p and returns Nil. On
// failure Nil is returned and p is left untouched and still valid.
//
// Strategies, first success wins:
//  1. the block already fits: shrink the tail off when enabled
//  2. merge the free block above
//  3. move into an existing free block
//  4. grow the heap directly when the block (or the free block above it)
//     ends at the epilogue, by exactly the shortfall
//  5. extend the heap for a new block and move
func (a *Allocator) Realloc(p Ptr, size int) Ptr {
	if p == Nil {
		return a.Alloc(size)
	}
	a.err = nil
	if !a.ready {
		a.err = ErrNotInitialized
		return Nil
	}
	if size < 0 || size > maxRequest {
		a.err = fmt.Errorf("realloc(%s, %d): %w", p, size, ErrInvalidSize)
		return Nil
	}
	if size == 0 {
		a.Free(p)
		return Nil
	}
	a.stats.reallocs++

	bp := int(p)
	asize := format.AdjustedSize(size)
	bsize := a.blockSize(bp)

	if bsize >= asize {
		if a.opts.ShrinkOnRealloc && bsize-asize >= minBlock {
			a.shrink(bp, asize, bsize-asize)
		}
		return a.took(ReallocInPlace, p, p, size)
	}

	next := a.nextBlock(bp)
	nsize := a.blockSize(next)

	if !a.isAlloc(next) && bsize+nsize >= asize {
		a.remove(next)
		bsize += nsize
		a.absorbed(bp, asize, bsize)
		return a.took(ReallocAbsorb, p, p, size)
	}

	keep := min(bsize-wsize, size)

	if nbp := a.findFit(asize); nbp != 0 {
		nbp = a.place(nbp, asize)
		a.move(nbp, bp, keep)
		return a.took(ReallocRelocate, p, Ptr(nbp), size)
	}

	if nsize == 0 || (!a.isAlloc(next) && a.blockSize(a.nextBlock(next)) == 0) {
		if _, err := a.sbrk(asize - bsize - nsize); err != nil {
			a.fail(fmt.Errorf("realloc(%s, %d): %w", p, size, err))
			return Nil
		}
		if nsize != 0 {
			a.remove(next)
		}
		a.absorbedEpilogue(bp, asize)
		return a.took(ReallocExtend, p, p, size)
	}

	nbp, err := a.extendHeap(max(a.opts.ChunkSize, asize) / wsize)
	if err != nil {
		a.fail(fmt.Errorf("realloc(%s, %d): %w", p, size, err))
		return Nil
	}
	nbp = a.place(nbp, asize)
	a.move(nbp, bp, keep)
	return a.took(ReallocFallback, p, Ptr(nbp), size)
}

// absorbed finishes a merge of bp with the free block above into bsize bytes.
func (a *Allocator) absorbed(bp, asize, bsize int) {
	if a.opts.ShrinkOnRealloc && bsize-asize >= minBlock {
		a.shrink(bp, asize, bsize-asize)
		return
	}
	a.setSize(bp, bsize)
	a.setPrevAlloc(a.nextBlock(bp), true)
}

// absorbedEpilogue resizes bp to asize after the heap was grown by exactly
// the shortfall, so the block ends at the new epilogue.
func (a *Allocator) absorbedEpilogue(bp, asize int) {
	a.put(bp+asize-wsize, format.Pack(0, true, true))
	a.setSize(bp, asize)
}

// move copies keep payload bytes from old to dst and frees old.
func (a *Allocator) move(dst, old, keep int) {
	copy(a.buf[dst:dst+keep], a.buf[old:old+keep])
	if a.opts.Tracker != nil {
		a.opts.Tracker.Add(dst, keep)
	}
	a.free(old)
}

func (a *Allocator) took(path ReallocPath, from, to Ptr, size int) Ptr {
	a.stats.reallocPaths[path]++
	a.log.Trace().
		Str("path", reallocPathNames[path]).
		Int("from", int(from)).
		Int("to", int(to)).
		Int("size", size).
		Msg("realloc")
	return to
}

// shrink cuts allocated block bp down to asize and frees the rsize-byte tail,
// merging it with a free block above.
func (a *Allocator) shrink(bp, asize, rsize int) {
	a.stats.splits++
	a.setSize(bp, asize)

	tail := bp + asize
	a.put(hdrp(tail), format.Pack(rsize, true, false))
	a.syncFooter(tail)
	a.insert(tail)

	next := tail + rsize
	a.setPrevAlloc(next, false)
	if !a.isAlloc(next) {
		a.syncFooter(next)
		a.coalesce(next)
	}
}

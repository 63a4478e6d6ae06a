package mm

import "github.com/joshuapare/segalloc/internal/format"

const (
	wsize    = format.WordSize
	dsize    = format.DoubleWordSize
	minBlock = format.MinBlockSize

	// firstBlock is the payload offset of the first block after the prologue.
	firstBlock = format.InitialHeapSize

	// prologueBP is the payload offset of the prologue.
	prologueBP = 2 * wsize
)

// Block navigation. bp is always a payload offset; the header sits one word
// below it.

func hdrp(bp int) int { return bp - wsize }

func (a *Allocator) word(off int) uint64 { return format.ReadU64(a.buf, off) }

// put writes a boundary-tag or link word and reports it to the tracker.
func (a *Allocator) put(off int, w uint64) {
	format.PutU64(a.buf, off, w)
	if a.opts.Tracker != nil {
		a.opts.Tracker.Add(off, wsize)
	}
}

func (a *Allocator) header(bp int) uint64 { return a.word(hdrp(bp)) }

func (a *Allocator) blockSize(bp int) int { return format.Unpack(a.header(bp)).Size }

func (a *Allocator) isAlloc(bp int) bool { return format.Unpack(a.header(bp)).Alloc }

func (a *Allocator) isPrevAlloc(bp int) bool { return format.Unpack(a.header(bp)).PrevAlloc }

// ftrp returns the footer offset of a free block.
func (a *Allocator) ftrp(bp int) int { return bp + a.blockSize(bp) - dsize }

func (a *Allocator) nextBlock(bp int) int { return bp + a.blockSize(bp) }

// prevBlock is only valid when the block below bp is free (it has a footer).
func (a *Allocator) prevBlock(bp int) int {
	return bp - format.Unpack(a.word(bp-dsize)).Size
}

func (a *Allocator) setSize(bp, size int) {
	a.put(hdrp(bp), format.WithSize(a.header(bp), size))
}

func (a *Allocator) setAlloc(bp int, alloc bool) {
	a.put(hdrp(bp), format.WithAlloc(a.header(bp), alloc))
}

func (a *Allocator) setPrevAlloc(bp int, prevAlloc bool) {
	a.put(hdrp(bp), format.WithPrevAlloc(a.header(bp), prevAlloc))
}

// syncFooter copies the header of a free block into its footer.
func (a *Allocator) syncFooter(bp int) {
	a.put(a.ftrp(bp), a.header(bp))
}

// Free-list links live in the first two payload words: succ at bp, pred at
// bp+8. Zero is the nil link.

func (a *Allocator) succ(bp int) int { return format.ReadOffset(a.buf, bp) }

func (a *Allocator) pred(bp int) int { return format.ReadOffset(a.buf, bp+wsize) }

func (a *Allocator) setSucc(bp, v int) {
	format.PutOffset(a.buf, bp, v)
	if a.opts.Tracker != nil {
		a.opts.Tracker.Add(bp, wsize)
	}
}

func (a *Allocator) setPred(bp, v int) {
	format.PutOffset(a.buf, bp+wsize, v)
	if a.opts.Tracker != nil {
		a.opts.Tracker.Add(bp+wsize, wsize)
	}
}

func unpack(w uint64) (size int, alloc, prevAlloc bool) {
	h := format.Unpack(w)
	return h.Size, h.Alloc, h.PrevAlloc
}

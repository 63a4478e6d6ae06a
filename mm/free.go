package mm

// Free releases an allocation. Freeing Nil is a no-op.
func (a *Allocator) Free(p Ptr) {
	if p == Nil || !a.ready {
		return
	}
	a.stats.frees++
	a.free(int(p))
}

func (a *Allocator) free(bp int) {
	a.setAlloc(bp, false)
	a.syncFooter(bp)

	next := a.nextBlock(bp)
	a.setPrevAlloc(next, false)
	if !a.isAlloc(next) {
		a.syncFooter(next)
	}

	a.insert(bp)
	a.coalesce(bp)
}

// coalesce merges free block bp (already indexed) with free neighbours and
// returns the payload of the merged block. Merged blocks are always removed
// and reinserted since their bucket may change.
func (a *Allocator) coalesce(bp int) int {
	next := a.nextBlock(bp)
	prevAlloc := a.isPrevAlloc(bp)
	nextAlloc := a.isAlloc(next)
	size := a.blockSize(bp)

	switch {
	case prevAlloc && nextAlloc:
		return bp

	case prevAlloc && !nextAlloc:
		a.remove(bp)
		a.remove(next)
		size += a.blockSize(next)
		a.setSize(bp, size)
		a.syncFooter(bp)

	case !prevAlloc && nextAlloc:
		prev := a.prevBlock(bp)
		a.remove(prev)
		a.remove(bp)
		size += a.blockSize(prev)
		a.setSize(prev, size)
		a.syncFooter(prev)
		bp = prev

	default:
		prev := a.prevBlock(bp)
		a.remove(prev)
		a.remove(bp)
		a.remove(next)
		size += a.blockSize(prev) + a.blockSize(next)
		a.setSize(prev, size)
		a.syncFooter(prev)
		bp = prev
	}

	a.stats.coalesces++
	a.insert(bp)
	return bp
}

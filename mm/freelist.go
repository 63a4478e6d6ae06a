package mm

// insert links a free block into its bucket.
func (a *Allocator) insert(bp int) {
	size := a.blockSize(bp)
	idx := BucketOf(size)

	if a.opts.InsertionOrder == MostRecentFirst {
		head := a.lists[idx]
		a.setPred(bp, 0)
		a.setSucc(bp, head)
		if head != 0 {
			a.setPred(head, bp)
		}
		a.lists[idx] = bp
		a.listLen[idx]++
		return
	}

	// Ascending: insert after the last block smaller than bp.
	after := 0
	at := a.lists[idx]
	for at != 0 && a.blockSize(at) < size {
		after = at
		at = a.succ(at)
	}

	a.setPred(bp, after)
	a.setSucc(bp, at)
	if at != 0 {
		a.setPred(at, bp)
	}
	if after != 0 {
		a.setSucc(after, bp)
	} else {
		a.lists[idx] = bp
	}
	a.listLen[idx]++
}

// remove unlinks a free block. The block's size must still be the size it
// was inserted with.
func (a *Allocator) remove(bp int) {
	idx := BucketOf(a.blockSize(bp))
	p, s := a.pred(bp), a.succ(bp)

	if s != 0 {
		a.setPred(s, p)
	}
	if p != 0 {
		a.setSucc(p, s)
	} else {
		a.lists[idx] = s
	}
	a.listLen[idx]--
}

// findFit returns the first free block of at least asize bytes, scanning
// buckets upward from the smallest that could hold it. Returns 0 on a miss.
func (a *Allocator) findFit(asize int) int {
	for i := BucketOf(asize); i < NumLists; i++ {
		for bp := a.lists[i]; bp != 0; bp = a.succ(bp) {
			if a.blockSize(bp) >= asize {
				return bp
			}
		}
	}
	return 0
}

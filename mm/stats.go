package mm

// counters are the cumulative event counts kept since Init.
type counters struct {
	allocs       int
	frees        int
	reallocs     int
	reallocPaths [NumReallocPaths]int
	extends      int
	extendBytes  int
	splits       int
	coalesces    int
	failures     int
}

// Stats is a snapshot of heap shape and allocator activity.
type Stats struct {
	// Heap shape, from a block walk.
	HeapSize        int
	AllocatedBlocks int
	AllocatedBytes  int // block bytes, including headers
	FreeBlocks      int
	FreeBytes       int
	LargestFree     int
	BucketLengths   [NumLists]int

	// Activity since Init.
	Allocs       int
	Frees        int
	Reallocs     int
	ReallocPaths [NumReallocPaths]int
	Extends      int // store growths, including the ones made by Init
	ExtendBytes  int
	Splits       int // blocks split by place or a realloc shrink
	Coalesces    int // merges performed by coalesce
	Failures     int // Alloc/Realloc calls that returned Nil for lack of memory
}

// Utilization is the share of the heap held by allocated blocks.
func (s Stats) Utilization() float64 {
	if s.HeapSize == 0 {
		return 0
	}
	return float64(s.AllocatedBytes) / float64(s.HeapSize)
}

// Stats walks the heap and returns a snapshot.
func (a *Allocator) Stats() Stats {
	s := Stats{
		HeapSize:      a.store.Size(),
		BucketLengths: a.listLen,
		Allocs:        a.stats.allocs,
		Frees:         a.stats.frees,
		Reallocs:      a.stats.reallocs,
		ReallocPaths:  a.stats.reallocPaths,
		Extends:       a.stats.extends,
		ExtendBytes:   a.stats.extendBytes,
		Splits:        a.stats.splits,
		Coalesces:     a.stats.coalesces,
		Failures:      a.stats.failures,
	}
	a.Blocks(func(b BlockInfo) bool {
		if b.Alloc {
			s.AllocatedBlocks++
			s.AllocatedBytes += b.Size
		} else {
			s.FreeBlocks++
			s.FreeBytes += b.Size
			s.LargestFree = max(s.LargestFree, b.Size)
		}
		return true
	})
	return s
}

// Blocks calls fn for every block between the prologue and the epilogue in
// address order, stopping early if fn returns false. It assumes a consistent
// heap; run Check first when in doubt.
func (a *Allocator) Blocks(fn func(BlockInfo) bool) {
	if !a.ready {
		return
	}
	for bp := firstBlock; ; {
		h := a.header(bp)
		info := BlockInfo{
			Ptr:    Ptr(bp),
			Bucket: -1,
		}
		info.Size, info.Alloc, info.PrevAlloc = unpack(h)
		if info.Size == 0 {
			return
		}
		if !info.Alloc {
			info.Bucket = BucketOf(info.Size)
		}
		if !fn(info) {
			return
		}
		bp += info.Size
	}
}

package mm

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joshuapare/segalloc/heap"
	"github.com/joshuapare/segalloc/internal/format"
)

// maxRequest bounds request sizes so size arithmetic cannot overflow.
const maxRequest = 1 << 40

// Allocator is a segregated-fit allocator that owns one heap.Store.
type Allocator struct {
	store heap.Store
	opts  Options
	log   zerolog.Logger

	// buf is the store's region, refreshed after every Sbrk.
	buf []byte

	// Bucket heads (payload offsets, 0 = empty) and lengths.
	lists   [NumLists]int
	listLen [NumLists]int

	ready bool
	err   error

	stats counters
}

// New returns an allocator over s. opts may be nil for DefaultOptions.
// The store must be empty; call Init before any other method.
func New(s heap.Store, opts *Options) *Allocator {
	a := &Allocator{
		store: s,
		opts:  opts.withDefaults(),
	}
	if a.opts.Logger != nil {
		a.log = *a.opts.Logger
	} else {
		a.log = defaultLogger()
	}
	return a
}

// Options returns the effective configuration.
func (a *Allocator) Options() Options { return a.opts }

// Store returns the backing store.
func (a *Allocator) Store() heap.Store { return a.store }

// Err returns the cause of the most recent failed Alloc or Realloc, or nil
// if the last such call succeeded.
func (a *Allocator) Err() error { return a.err }

// Init lays down the prologue and epilogue and performs the initial heap
// extension.
//
// Heap image after Init with the default 64-byte initial chunk:
//
//	0x00  pad
//	0x08  prologue header  (16, prev=0, alloc=1)
//	0x10  prologue footer
//	0x18  free block header (64, prev=1, alloc=0)   <- first block, bp 0x20
//	0x50  free block footer
//	0x58  epilogue header  (0, prev=0, alloc=1)
func (a *Allocator) Init() error {
	if a.store.Size() != 0 {
		return ErrStoreNotEmpty
	}
	a.ready = false
	a.err = nil
	a.lists = [NumLists]int{}
	a.listLen = [NumLists]int{}
	a.stats = counters{}

	base, err := a.sbrk(format.InitialHeapSize)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	a.put(base, 0)
	a.put(base+wsize, format.Pack(format.PrologueSize, false, true))
	a.put(base+2*wsize, format.Pack(format.PrologueSize, false, true))
	a.put(base+3*wsize, format.Pack(0, true, true))

	if _, err := a.extendHeap(a.opts.InitChunkSize / wsize); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	a.ready = true
	a.log.Debug().
		Int("heap", a.store.Size()).
		Int("split_threshold", a.opts.SplitThreshold).
		Str("order", a.opts.InsertionOrder.String()).
		Bool("shrink", a.opts.ShrinkOnRealloc).
		Msg("allocator initialized")
	return nil
}

// Alloc returns a 16-byte aligned payload of at least size bytes, or Nil when
// size is zero or the heap cannot grow.
func (a *Allocator) Alloc(size int) Ptr {
	a.err = nil
	if !a.ready {
		a.err = ErrNotInitialized
		return Nil
	}
	if size == 0 {
		return Nil
	}
	if size < 0 || size > maxRequest {
		a.err = fmt.Errorf("alloc(%d): %w", size, ErrInvalidSize)
		return Nil
	}
	a.stats.allocs++

	asize := format.AdjustedSize(size)
	bp := a.findFit(asize)
	if bp == 0 {
		var err error
		if bp, err = a.extendHeap(max(a.opts.ChunkSize, asize) / wsize); err != nil {
			a.fail(fmt.Errorf("alloc(%d): %w", size, err))
			return Nil
		}
	}
	return Ptr(a.place(bp, asize))
}

// Payload returns the usable bytes of an allocated block. The slice aliases
// the heap and is invalidated by the next call that grows it.
func (a *Allocator) Payload(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	bp := int(p)
	return a.buf[bp : bp+a.blockSize(bp)-wsize]
}

// UsableSize returns the payload capacity of an allocated block.
func (a *Allocator) UsableSize(p Ptr) int {
	if p == Nil {
		return 0
	}
	return a.blockSize(int(p)) - wsize
}

func (a *Allocator) fail(err error) {
	a.err = err
	a.stats.failures++
	a.log.Warn().Err(err).Int("heap", a.store.Size()).Msg("allocation failed")
}

// sbrk grows the store and refreshes buf. Nothing is written on failure.
func (a *Allocator) sbrk(n int) (int, error) {
	old, err := a.store.Sbrk(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoMemory, err)
	}
	a.buf = a.store.Bytes()
	a.stats.extends++
	a.stats.extendBytes += n
	a.log.Debug().Int("bytes", n).Int("heap", a.store.Size()).Msg("heap extended")
	return old, nil
}

// extendHeap grows the heap by words (rounded up to an even count) and
// returns the resulting free block after coalescing with a free block below.
func (a *Allocator) extendHeap(words int) (int, error) {
	size := (words + 1) / 2 * dsize
	bp, err := a.sbrk(size)
	if err != nil {
		return 0, err
	}

	// The old epilogue header becomes the new block's header.
	prev := a.isPrevAlloc(bp)
	a.put(hdrp(bp), format.Pack(size, prev, false))
	a.syncFooter(bp)
	a.put(hdrp(bp+size), format.Pack(0, false, true))

	a.insert(bp)
	return a.coalesce(bp), nil
}

// place marks asize bytes of free block bp allocated and returns the payload.
//
// A remainder of at least minBlock bytes is split off. Requests at or above
// SplitThreshold take the high end of the block so the remainder stays low;
// smaller requests take the low end.
func (a *Allocator) place(bp, asize int) int {
	csize := a.blockSize(bp)
	rsize := csize - asize
	next := bp + csize

	a.remove(bp)

	if rsize < minBlock {
		a.setAlloc(bp, true)
		a.setPrevAlloc(next, true)
		return bp
	}

	a.stats.splits++
	if asize >= a.opts.SplitThreshold {
		a.setPrevAlloc(next, true)
		a.setSize(bp, rsize)
		a.syncFooter(bp)
		hi := bp + rsize
		a.put(hdrp(hi), format.Pack(asize, false, true))
		a.insert(bp)
		return hi
	}

	a.setPrevAlloc(next, false)
	a.put(hdrp(bp), format.Pack(asize, a.isPrevAlloc(bp), true))
	rem := bp + asize
	a.put(hdrp(rem), format.Pack(rsize, true, false))
	a.syncFooter(rem)
	a.insert(rem)
	return bp
}

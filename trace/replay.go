package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/joshuapare/segalloc/heap"
	"github.com/joshuapare/segalloc/heap/dirty"
	"github.com/joshuapare/segalloc/internal/format"
	"github.com/joshuapare/segalloc/mm"
)

// Config controls a replay.
type Config struct {
	// Options for the allocator; nil means mm.DefaultOptions().
	Options *mm.Options

	// Store must be empty. nil means a fresh MemStore with the default ceiling.
	Store heap.Store

	// Tracker, if set, records every heap write (allocator metadata and the
	// payload patterns) and is flushed when the replay finishes.
	Tracker *dirty.Tracker

	// CheckHeap runs Allocator.Check after every op.
	CheckHeap bool

	// StopAfter ends the replay after that many ops; <= 0 runs them all.
	StopAfter int

	// Logger for progress; nil disables logging.
	Logger *zerolog.Logger
}

// Result summarizes a replay.
type Result struct {
	Name        string
	Ops         int
	PeakLive    int // largest sum of live payload bytes
	HeapSize    int
	Utilization float64 // PeakLive / HeapSize
	Elapsed     time.Duration
	Stats       mm.Stats

	// Allocator is left in its final state for inspection.
	Allocator *mm.Allocator
}

// Throughput returns ops per second.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// replayer holds per-run state.
type replayer struct {
	t       *Trace
	a       *mm.Allocator
	tracker *dirty.Tracker
	check   bool

	ptrs  []mm.Ptr
	sizes []int
	live  *liveSet

	liveBytes int
	peak      int
}

// Replay runs t against a new allocator and validates every result. It stops
// at the first failure, returning a *ReplayError, or when ctx is cancelled.
func Replay(ctx context.Context, t *Trace, cfg Config) (*Result, error) {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	store := cfg.Store
	if store == nil {
		store = heap.NewMemStore(0)
	}
	opts := mm.DefaultOptions()
	if cfg.Options != nil {
		o := *cfg.Options
		opts = &o
	}
	if cfg.Tracker != nil {
		opts.Tracker = cfg.Tracker
	}

	if t.NumIDs < 0 || t.NumIDs > MaxIDs {
		return nil, fmt.Errorf("%s: %d ids: %w", t.Name, t.NumIDs, ErrBadID)
	}

	a := mm.New(store, opts)
	if err := a.Init(); err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	r := &replayer{
		t:       t,
		a:       a,
		tracker: cfg.Tracker,
		check:   cfg.CheckHeap,
		ptrs:    make([]mm.Ptr, t.NumIDs),
		sizes:   make([]int, t.NumIDs),
		live:    newLiveSet(),
	}

	ops := t.Ops
	if cfg.StopAfter > 0 && cfg.StopAfter < len(ops) {
		ops = ops[:cfg.StopAfter]
	}

	start := time.Now()
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.step(op); err != nil {
			err.Trace, err.Index, err.Line, err.Op = t.Name, i, op.Line, op
			log.Debug().Err(err).Msg("replay failed")
			return nil, err
		}
	}
	elapsed := time.Since(start)

	if cfg.Tracker != nil {
		if err := cfg.Tracker.Flush(ctx, dirty.FlushAuto); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
	}

	res := &Result{
		Name:     t.Name,
		Ops:      len(ops),
		PeakLive: r.peak,
		HeapSize: store.Size(),
		Elapsed:  elapsed,
		Stats:    a.Stats(),

		Allocator: a,
	}
	if res.HeapSize > 0 {
		res.Utilization = float64(res.PeakLive) / float64(res.HeapSize)
	}
	log.Debug().
		Str("trace", t.Name).
		Int("ops", res.Ops).
		Int("heap", res.HeapSize).
		Float64("util", res.Utilization).
		Dur("elapsed", elapsed).
		Msg("replay done")
	return res, nil
}

func (r *replayer) step(op Op) *ReplayError {
	if op.ID < 0 || op.ID >= len(r.ptrs) {
		return &ReplayError{Kind: KindUnknown, Err: fmt.Errorf("id %d with %d ids: %w", op.ID, len(r.ptrs), ErrBadID)}
	}
	switch op.Kind {
	case OpAlloc:
		if r.ptrs[op.ID] != mm.Nil {
			// Reusing a live id leaks the old block.
			r.forget(op.ID)
		}
		p := r.a.Alloc(op.Size)
		if err := r.adopt(op.ID, p, op.Size); err != nil {
			return err
		}
		r.fill(op.ID, 0)

	case OpRealloc:
		old := r.ptrs[op.ID]
		oldSize := r.sizes[op.ID]
		r.forget(op.ID)
		p := r.a.Realloc(old, op.Size)
		if op.Size == 0 {
			break
		}
		if err := r.adopt(op.ID, p, op.Size); err != nil {
			return err
		}
		keep := min(oldSize, op.Size)
		if off, ok := r.verify(op.ID, keep); !ok {
			return &ReplayError{Kind: KindPayload, Err: fmt.Errorf("byte %d of %d not preserved", off, keep)}
		}
		r.fill(op.ID, keep)

	case OpFree:
		p := r.ptrs[op.ID]
		if p == mm.Nil {
			// Freeing an id that was never allocated is a no-op, like free(NULL).
			r.a.Free(mm.Nil)
			break
		}
		if off, ok := r.verify(op.ID, r.sizes[op.ID]); !ok {
			return &ReplayError{Kind: KindPayload, Err: fmt.Errorf("byte %d clobbered before free", off)}
		}
		r.forget(op.ID)
		r.a.Free(p)
	}

	if r.check {
		if err := r.a.Check(); err != nil {
			return &ReplayError{Kind: KindCheck, Err: err}
		}
	}
	return nil
}

// adopt validates a fresh payload and records it as live.
func (r *replayer) adopt(id int, p mm.Ptr, size int) *ReplayError {
	if size == 0 {
		return nil
	}
	if p == mm.Nil {
		return &ReplayError{Kind: KindNull, Err: r.a.Err()}
	}
	off := int(p)
	if !format.IsAligned(off) {
		return &ReplayError{Kind: KindAlign, Err: fmt.Errorf("payload %s", p)}
	}
	store := r.a.Store()
	if off < store.Lo() || off+size-1 > store.Hi() {
		return &ReplayError{Kind: KindBounds, Err: fmt.Errorf("payload [%#x,%#x) outside heap [%#x,%#x]", off, off+size, store.Lo(), store.Hi())}
	}
	if hit, ok := r.live.overlapping(off, off+size); ok {
		return &ReplayError{Kind: KindOverlap, Err: fmt.Errorf("payload [%#x,%#x) overlaps id %d at [%#x,%#x)", off, off+size, hit.id, hit.lo, hit.hi)}
	}

	r.live.add(span{lo: off, hi: off + size, id: id})
	r.ptrs[id] = p
	r.sizes[id] = size
	r.liveBytes += size
	r.peak = max(r.peak, r.liveBytes)
	return nil
}

// forget drops id from the live set without touching the allocator.
func (r *replayer) forget(id int) {
	if p := r.ptrs[id]; p != mm.Nil {
		r.live.remove(int(p))
	}
	r.liveBytes -= r.sizes[id]
	r.ptrs[id] = mm.Nil
	r.sizes[id] = 0
}

func pattern(id, i int) byte { return byte(id*31 + i) }

// fill writes id's pattern from byte from to the end of its request.
func (r *replayer) fill(id, from int) {
	p, size := r.ptrs[id], r.sizes[id]
	buf := r.a.Payload(p)
	for i := from; i < size; i++ {
		buf[i] = pattern(id, i)
	}
	if r.tracker != nil && size > from {
		r.tracker.Add(int(p)+from, size-from)
	}
}

// verify checks the first n bytes of id's payload, returning the first
// mismatching offset.
func (r *replayer) verify(id, n int) (int, bool) {
	if n == 0 {
		return 0, true
	}
	buf := r.a.Payload(r.ptrs[id])
	for i := range n {
		if buf[i] != pattern(id, i) {
			return i, false
		}
	}
	return 0, true
}

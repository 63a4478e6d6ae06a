package dirty

import (
	"context"
	"fmt"
	"sort"

	"github.com/joshuapare/segalloc/heap"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// FlushMode controls how much durability Flush asks of the store.
type FlushMode int

const (
	// FlushAuto syncs the dirty ranges and then the whole store when the
	// store supports it.
	FlushAuto FlushMode = iota

	// FlushDataOnly only syncs the dirty ranges.
	FlushDataOnly
)

// String returns the flag spelling of the mode.
func (m FlushMode) String() string {
	switch m {
	case FlushAuto:
		return "auto"
	case FlushDataOnly:
		return "data"
	default:
		return fmt.Sprintf("FlushMode(%d)", int(m))
	}
}

// Target is what a tracker flushes into.
type Target interface {
	heap.Syncer
	Size() int
}

// fullSyncer is implemented by FileStore.
type fullSyncer interface {
	Sync() error
}

// Range is a dirty byte range, relative to the start of the store.
type Range struct {
	Off int64
	Len int64
}

// End returns the exclusive end offset.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them in page-aligned batches.
//
// NOT thread-safe.
type Tracker struct {
	target   Target
	ranges   []Range
	pageSize int64
	flushes  int
}

// NewTracker creates a tracker that flushes into target.
func NewTracker(target Target) *Tracker {
	return &Tracker{
		target:   target,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. Zero and negative lengths are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: int64(off), Len: int64(length)})
}

// Pending returns the number of raw ranges recorded since the last flush.
func (t *Tracker) Pending() int { return len(t.ranges) }

// Flushes returns the number of successful non-empty flushes.
func (t *Tracker) Flushes() int { return t.flushes }

// Flush syncs every dirty page to the target and clears the tracked ranges.
//
// If ctx is cancelled mid-flush, some ranges may already be synced; the
// tracked set is kept so a retry covers everything.
func (t *Tracker) Flush(ctx context.Context, mode FlushMode) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	size := int64(t.target.Size())
	for _, r := range t.coalesce() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Off >= size {
			continue
		}
		end := min(r.End(), size)
		if err := t.target.SyncRange(int(r.Off), int(end-r.Off)); err != nil {
			return fmt.Errorf("dirty: sync [%#x,%#x): %w", r.Off, end, err)
		}
	}

	if mode == FlushAuto {
		if fs, ok := t.target.(fullSyncer); ok {
			if err := fs.Sync(); err != nil {
				return fmt.Errorf("dirty: sync store: %w", err)
			}
		}
	}

	t.ranges = t.ranges[:0]
	t.flushes++
	return nil
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Ranges returns the coalesced, page-aligned ranges a flush would sync.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping or
// adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize
		end := r.End()
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

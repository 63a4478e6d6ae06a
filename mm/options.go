package mm

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/joshuapare/segalloc/internal/format"
)

// InsertOrder selects where a freed block goes within its bucket.
type InsertOrder int

const (
	// Ascending keeps each bucket sorted by block size, so the first fit
	// found in a bucket is also the best fit in it.
	Ascending InsertOrder = iota

	// MostRecentFirst pushes freed blocks at the bucket head.
	MostRecentFirst
)

// String returns the flag spelling of the order.
func (o InsertOrder) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case MostRecentFirst:
		return "lifo"
	default:
		return fmt.Sprintf("InsertOrder(%d)", int(o))
	}
}

// ParseInsertOrder accepts "ascending" or "lifo" (case-insensitive).
func ParseInsertOrder(s string) (InsertOrder, error) {
	switch strings.ToLower(s) {
	case "ascending", "asc":
		return Ascending, nil
	case "lifo", "most-recent-first", "mrf":
		return MostRecentFirst, nil
	default:
		return 0, fmt.Errorf("mm: unknown insertion order %q", s)
	}
}

const (
	// DefaultSplitThreshold is the request size at or above which place puts
	// the allocated part at the high end of a split block.
	DefaultSplitThreshold = 96

	// DefaultChunkSize is the minimum heap extension on an allocation miss.
	DefaultChunkSize = 4096

	// DefaultInitChunkSize is the extension performed by Init.
	DefaultInitChunkSize = 64
)

// DirtyTracker receives every heap range the allocator writes.
// heap/dirty.Tracker satisfies it.
type DirtyTracker interface {
	Add(off, length int)
}

// Options configures an Allocator. The zero value of each field selects its
// default, except ShrinkOnRealloc which must be set explicitly (DefaultOptions
// sets it).
type Options struct {
	// SplitThreshold: requests of at least this many block bytes are placed
	// at the high address of a split block.
	SplitThreshold int

	// InsertionOrder within a bucket.
	InsertionOrder InsertOrder

	// ShrinkOnRealloc splits the unused tail off a block when Realloc makes
	// it smaller (or merges more than it needs).
	ShrinkOnRealloc bool

	// ChunkSize is the minimum number of bytes added when the heap grows.
	ChunkSize int

	// InitChunkSize is the number of bytes added by Init.
	InitChunkSize int

	// Tracker, if set, is told about every header, footer, link and copied
	// payload range the allocator writes.
	Tracker DirtyTracker

	// Logger overrides the environment-configured logger.
	Logger *zerolog.Logger
}

// DefaultOptions returns the canonical configuration: ascending insertion, a
// 96-byte split threshold, and shrinking enabled.
func DefaultOptions() *Options {
	return &Options{
		SplitThreshold:  DefaultSplitThreshold,
		InsertionOrder:  Ascending,
		ShrinkOnRealloc: true,
		ChunkSize:       DefaultChunkSize,
		InitChunkSize:   DefaultInitChunkSize,
	}
}

// withDefaults returns a copy with zero sizes replaced by defaults.
func (o *Options) withDefaults() Options {
	if o == nil {
		return *DefaultOptions()
	}
	out := *o
	if out.SplitThreshold <= 0 {
		out.SplitThreshold = DefaultSplitThreshold
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.InitChunkSize <= 0 {
		out.InitChunkSize = DefaultInitChunkSize
	}
	out.ChunkSize = format.Align(out.ChunkSize)
	out.InitChunkSize = format.Align(out.InitChunkSize)
	return out
}

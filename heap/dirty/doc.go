// Package dirty tracks which pages of a heap store an allocator has written.
//
// # Overview
//
// The allocator reports every header, footer and link word it writes through
// Add. At flush time the tracker page-aligns the recorded ranges, sorts and
// merges them, and hands each merged range to the store's SyncRange. For a
// FileStore that is an msync of just the touched pages; for a MemStore it is a
// bounds check.
//
// # Usage
//
//	store, _ := heap.OpenFileStore(path, 0)
//	tracker := dirty.NewTracker(store)
//	a := mm.New(store, &mm.Options{Tracker: tracker})
//	...
//	err := tracker.Flush(ctx, dirty.FlushAuto)
//
// # Page-Level Granularity
//
// Ranges are widened to 4KB pages before merging:
//
//	Add(100, 200), Add(4000, 200) → [0x0-0x2000]
//
// # Thread Safety
//
// Trackers are not thread-safe. They share the owning allocator's goroutine.
package dirty

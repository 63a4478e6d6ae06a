// Package mm implements a segregated-free-list allocator over a heap.Store.
//
// # Overview
//
// The heap is an address-ordered run of blocks bracketed by a prologue and an
// epilogue sentinel. Every block starts with a boundary tag:
//
//	Offset   Size  Field
//	bp-8     8     header: size | prev_alloc<<1 | alloc
//	bp       ...   payload (allocated) or succ/pred links (free)
//	bp+sz-16 8     footer, free blocks only (copy of the header)
//
// Allocated blocks carry no footer. The next block's prev_alloc bit records
// that the block below it is in use, so coalescing never needs to read it.
//
// Free blocks are indexed in NumLists buckets by payload capacity. Bucket 0
// holds payloads up to 16 bytes and each following bucket doubles the bound;
// the last bucket is unbounded. Within a bucket blocks are kept in ascending
// size order (or most-recently-freed first, see InsertOrder).
//
// # Pointers
//
// A Ptr is the heap-relative offset of a payload. Nil (zero) is never a valid
// payload because the prologue occupies the bottom of the heap. Use Payload to
// get a byte view of an allocation; the view is invalidated by any call that
// may grow the heap.
//
// # Usage
//
//	a := mm.New(heap.NewMemStore(0), nil)
//	if err := a.Init(); err != nil {
//	    return err
//	}
//	p := a.Alloc(100)
//	copy(a.Payload(p), data)
//	p = a.Realloc(p, 400)
//	a.Free(p)
//
// # Errors
//
// Alloc and Realloc report failure by returning Nil; Err returns the cause.
// Misuse such as freeing a pointer twice is not detected. Check walks the heap
// and the index and returns a *CheckError describing the first inconsistency.
//
// # Thread Safety
//
// An Allocator is not thread-safe. Wrap calls in a mutex to share one.
package mm

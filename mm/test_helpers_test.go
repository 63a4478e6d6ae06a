package mm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/segalloc/heap"
)

// newTestAllocator returns an initialized allocator over an in-memory store.
func newTestAllocator(t testing.TB, opts *Options) *Allocator {
	t.Helper()
	return newTestAllocatorLimit(t, 0, opts)
}

// newTestAllocatorLimit is newTestAllocator with a store ceiling.
func newTestAllocatorLimit(t testing.TB, limit int, opts *Options) *Allocator {
	t.Helper()
	a := New(heap.NewMemStore(limit), opts)
	require.NoError(t, a.Init())
	requireConsistent(t, a)
	return a
}

// requireConsistent fails the test if Check reports a problem.
func requireConsistent(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}

// freeBlocks returns every free block in address order.
func freeBlocks(a *Allocator) []BlockInfo {
	var out []BlockInfo
	a.Blocks(func(b BlockInfo) bool {
		if !b.Alloc {
			out = append(out, b)
		}
		return true
	})
	return out
}

// blockContaining returns the block whose payload range covers p.
func blockContaining(a *Allocator, p Ptr) (BlockInfo, bool) {
	var found BlockInfo
	ok := false
	a.Blocks(func(b BlockInfo) bool {
		if p >= b.Ptr && int(p) < int(b.Ptr)+b.Size {
			found, ok = b, true
			return false
		}
		return true
	})
	return found, ok
}

// fill writes a recognizable pattern into the first n payload bytes of p.
func fill(a *Allocator, p Ptr, n int, seed byte) {
	buf := a.Payload(p)
	for i := range n {
		buf[i] = seed + byte(i*7)
	}
}

// requirePattern asserts the first n payload bytes of p still hold fill's pattern.
func requirePattern(t testing.TB, a *Allocator, p Ptr, n int, seed byte) {
	t.Helper()
	buf := a.Payload(p)
	require.GreaterOrEqual(t, len(buf), n)
	for i := range n {
		if buf[i] != seed+byte(i*7) {
			t.Fatalf("payload of %s differs at byte %d: got %#x want %#x", p, i, buf[i], seed+byte(i*7))
		}
	}
}

package mm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealloc_NilAndZero(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Realloc(Nil, 10)
	assert.Equal(t, Ptr(32), p, "Realloc(Nil, n) allocates")

	// Scenario: reallocate(p, 0) frees p.
	assert.Equal(t, Nil, a.Realloc(p, 0))
	b, ok := blockContaining(a, p)
	require.True(t, ok)
	assert.False(t, b.Alloc)
	requireConsistent(t, a)
}

func TestRealloc_ZeroCoalescesFormerBlock(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(100)
	require.NotEqual(t, Nil, p)
	assert.Equal(t, Nil, a.Realloc(p, 0))

	free := freeBlocks(a)
	require.Len(t, free, 1)
	b, ok := blockContaining(a, p)
	require.True(t, ok)
	assert.Equal(t, free[0], b)
}

func TestRealloc_Negative(t *testing.T) {
	a := newTestAllocator(t, nil)
	p := a.Alloc(10)
	before := bytes.Clone(a.Store().Bytes())

	assert.Equal(t, Nil, a.Realloc(p, -1))
	require.ErrorIs(t, a.Err(), ErrInvalidSize)
	assert.Equal(t, before, a.Store().Bytes())
}

// Scenario: shrinking splits the tail off and merges it with a free successor.
func TestRealloc_ShrinkCoalescesTail(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(60) // 80-byte block at the bottom
	q := a.Alloc(10)
	require.Equal(t, Ptr(32), p)
	require.Equal(t, Ptr(112), q)
	a.Free(q)
	fill(a, p, 60, 9)

	r := a.Realloc(p, 20)
	assert.Equal(t, p, r)
	assert.Equal(t, 24, a.UsableSize(p))
	requirePattern(t, a, p, 20, 9)

	free := freeBlocks(a)
	require.Len(t, free, 1)
	assert.Equal(t, Ptr(64), free[0].Ptr)
	assert.Equal(t, a.Store().Size()-64, free[0].Size)
	assert.Equal(t, 1, a.Stats().ReallocPaths[ReallocInPlace])
	requireConsistent(t, a)
}

func TestRealloc_ShrinkBeforeAllocated(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(200)
	require.NotEqual(t, Nil, p)
	assert.Equal(t, Ptr(a.Realloc(p, 50)), p)
	assert.Equal(t, 56, a.UsableSize(p))

	free := freeBlocks(a)
	require.Len(t, free, 2)
	assert.Equal(t, Ptr(int(p)+64), free[1].Ptr)
	assert.Equal(t, 144, free[1].Size)
	requireConsistent(t, a)
}

func TestRealloc_NoShrink(t *testing.T) {
	opts := DefaultOptions()
	opts.ShrinkOnRealloc = false
	a := newTestAllocator(t, opts)

	p := a.Alloc(200)
	usable := a.UsableSize(p)
	assert.Equal(t, p, a.Realloc(p, 10))
	assert.Equal(t, usable, a.UsableSize(p))
	requireConsistent(t, a)
}

func TestRealloc_AbsorbNext(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(10)
	fill(a, p, 24, 5)

	r := a.Realloc(p, 40)
	assert.Equal(t, p, r)
	assert.Equal(t, 56, a.UsableSize(p), "16 spare bytes are not enough to split")
	requirePattern(t, a, p, 24, 5)
	assert.Empty(t, freeBlocks(a))
	assert.Equal(t, 1, a.Stats().ReallocPaths[ReallocAbsorb])
	requireConsistent(t, a)
}

func TestRealloc_AbsorbNextAndSplit(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(10)
	q := a.Alloc(200) // taken from the top, leaving a large free block above p
	require.Equal(t, Ptr(32), p)
	require.Equal(t, Ptr(a.Store().Size()-208), q)
	fill(a, p, 24, 3)

	r := a.Realloc(p, 100)
	assert.Equal(t, p, r)
	assert.Equal(t, 104, a.UsableSize(p))
	requirePattern(t, a, p, 24, 3)

	free := freeBlocks(a)
	require.Len(t, free, 1)
	assert.Equal(t, Ptr(144), free[0].Ptr)
	assert.Equal(t, int(q)-144, free[0].Size)
	requireConsistent(t, a)
}

func TestRealloc_Relocate(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(10)
	q := a.Alloc(10)
	r := a.Alloc(500)
	require.Equal(t, Ptr(32), p)
	require.Equal(t, Ptr(64), q)
	require.Equal(t, Ptr(96+4096-512), r)
	fill(a, p, 24, 7)

	n := a.Realloc(p, 100)
	assert.Equal(t, Ptr(96+3584-112), n)
	requirePattern(t, a, n, 24, 7)

	old, ok := blockContaining(a, p)
	require.True(t, ok)
	assert.False(t, old.Alloc)
	assert.Equal(t, 1, a.Stats().ReallocPaths[ReallocRelocate])
	requireConsistent(t, a)
}

func TestRealloc_ExtendAtEpilogue(t *testing.T) {
	a := newTestAllocator(t, nil)

	a.Alloc(10)
	q := a.Alloc(10)
	require.Equal(t, Ptr(64), q)
	fill(a, q, 24, 11)
	size := a.Store().Size()

	r := a.Realloc(q, 100)
	assert.Equal(t, q, r)
	assert.Equal(t, size+80, a.Store().Size(), "heap grows by exactly the shortfall")
	assert.Equal(t, 104, a.UsableSize(q))
	requirePattern(t, a, q, 24, 11)
	assert.Equal(t, 1, a.Stats().ReallocPaths[ReallocExtend])
	requireConsistent(t, a)
}

func TestRealloc_ExtendThroughFreeTail(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(10) // free 32-byte block above it, then the epilogue
	fill(a, p, 24, 13)
	size := a.Store().Size()

	r := a.Realloc(p, 100)
	assert.Equal(t, p, r)
	assert.Equal(t, size+48, a.Store().Size())
	assert.Equal(t, 104, a.UsableSize(p))
	assert.Empty(t, freeBlocks(a))
	requirePattern(t, a, p, 24, 13)
	requireConsistent(t, a)
}

func TestRealloc_Fallback(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(10)
	a.Alloc(10)
	fill(a, p, 24, 17)

	n := a.Realloc(p, 100)
	assert.Equal(t, Ptr(96+4096-112), n)
	requirePattern(t, a, n, 24, 17)
	assert.Equal(t, 1, a.Stats().ReallocPaths[ReallocFallback])

	old, ok := blockContaining(a, p)
	require.True(t, ok)
	assert.False(t, old.Alloc)
	requireConsistent(t, a)
}

func TestRealloc_OutOfMemoryKeepsBlock(t *testing.T) {
	a := newTestAllocatorLimit(t, 96, nil)

	p := a.Alloc(10)
	q := a.Alloc(10)
	fill(a, p, 24, 19)
	fill(a, q, 24, 23)
	before := bytes.Clone(a.Store().Bytes())

	// Direct extension under q fails.
	assert.Equal(t, Nil, a.Realloc(q, 100))
	require.ErrorIs(t, a.Err(), ErrNoMemory)

	// Fallback extension for p fails.
	assert.Equal(t, Nil, a.Realloc(p, 1000))
	require.ErrorIs(t, a.Err(), ErrNoMemory)

	assert.Equal(t, before, a.Store().Bytes())
	requirePattern(t, a, p, 24, 19)
	requirePattern(t, a, q, 24, 23)
	assert.Equal(t, 2, a.Stats().Failures)
	requireConsistent(t, a)
}

func TestRealloc_PreservesDataAcrossGrowth(t *testing.T) {
	a := newTestAllocator(t, nil)

	p := a.Alloc(1)
	n := 1
	fill(a, p, n, 29)
	for _, size := range []int{30, 100, 700, 5000, 20000, 64} {
		keep := min(a.UsableSize(p), size)
		p = a.Realloc(p, size)
		require.NotEqual(t, Nil, p)
		requirePattern(t, a, p, min(n, keep), 29)
		requireConsistent(t, a)

		n = min(size, a.UsableSize(p))
		fill(a, p, n, 29)
	}
}

func TestReallocPath_String(t *testing.T) {
	assert.Equal(t, "in-place", ReallocInPlace.String())
	assert.Equal(t, "fallback", ReallocFallback.String())
	assert.Equal(t, "ReallocPath(9)", ReallocPath(9).String())
}

func TestRealloc_ExtendFitsExactly(t *testing.T) {
	for _, shrink := range []bool{true, false} {
		opts := DefaultOptions()
		opts.ShrinkOnRealloc = shrink
		a := newTestAllocator(t, opts)

		a.Alloc(10)
		q := a.Alloc(10)
		splits := a.Stats().Splits

		require.Equal(t, q, a.Realloc(q, 100))
		b, ok := blockContaining(a, q)
		require.True(t, ok)
		assert.Equal(t, 112, b.Size, "shrink=%v", shrink)
		assert.Equal(t, a.Store().Size()-8, int(q)-8+b.Size, "block ends at the epilogue")
		assert.Equal(t, splits, a.Stats().Splits, "nothing left over to split")
		requireConsistent(t, a)
	}
}

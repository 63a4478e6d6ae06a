// Package trace reads allocation traces and replays them against an mm.Allocator.
//
// # Format
//
// A trace is plain text. Four header integers come first: the suggested heap
// size, the number of distinct block ids, the number of operations, and a
// weight. Each following line is one operation:
//
//	a <id> <size>    allocate size bytes for id
//	r <id> <size>    reallocate id to size bytes
//	f <id>           free id
//
// Blank lines and lines starting with '#' are ignored.
//
// # Replay
//
// Replay runs every operation on a fresh allocator and validates each result
// the way a test driver would: the pointer is non-nil and aligned, the payload
// lies inside the heap, it does not overlap any live block, and realloc keeps
// the old payload bytes. Each block is filled with a pattern derived from its
// id so corruption by a neighbour is caught when the block is next touched.
//
//	tr, err := trace.Load("traces/binary-bal.rep")
//	res, err := trace.Replay(ctx, tr, trace.Config{CheckHeap: true})
//	fmt.Printf("util %.1f%%  %.0f ops/s\n", 100*res.Utilization, res.Throughput())
package trace

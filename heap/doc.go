// Package heap provides the backing stores that an allocator grows into.
//
// # Overview
//
// A Store owns one contiguous byte region that only ever grows. It mirrors the
// classic sbrk(2) contract:
//
//   - Sbrk(n): grow by n bytes, return the old break (offset of the new bytes)
//   - Lo()/Hi(): offsets of the first and last valid byte
//   - Bytes(): the current region
//
// Offsets are relative to the start of the region, so callers never handle raw
// addresses. Bytes() must be re-read after every Sbrk because growth may move
// the region.
//
// # Implementations
//
// MemStore: an in-process []byte with a hard ceiling (20 MiB by default).
//
// FileStore: a file mapped read/write with mmap on linux and darwin. Growth
// extends the file and remaps it. On other platforms the region lives in
// memory and is written back on Sync and Close.
//
// # Thread Safety
//
// Stores are not thread-safe. They are owned by a single allocator.
package heap

package mm

import "errors"

var (
	// ErrNoMemory indicates the backing store refused to grow.
	ErrNoMemory = errors.New("mm: out of memory")

	// ErrNotInitialized indicates use of an allocator before Init succeeded.
	ErrNotInitialized = errors.New("mm: allocator not initialized")

	// ErrStoreNotEmpty indicates Init was called on a store that already holds data.
	ErrStoreNotEmpty = errors.New("mm: store is not empty")

	// ErrInvalidSize indicates a negative or unrepresentable request size.
	ErrInvalidSize = errors.New("mm: invalid request size")

	// ErrCorrupt is wrapped by every *CheckError.
	ErrCorrupt = errors.New("mm: heap inconsistent")
)

//go:build darwin

package heap

import "golang.org/x/sys/unix"

// msyncRange flushes the whole mapping.
//
// On macOS, msync() requires the address to match the original mmap() address,
// so sub-slices are rejected. The kernel only writes pages that are dirty anyway.
func msyncRange(data []byte, _, _ int) error {
	return unix.Msync(data, unix.MS_SYNC)
}

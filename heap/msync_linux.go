//go:build linux

package heap

import "golang.org/x/sys/unix"

// msyncRange flushes data[start:end]. Linux accepts page-aligned sub-slices.
func msyncRange(data []byte, start, end int) error {
	return unix.Msync(data[start:end], unix.MS_SYNC)
}

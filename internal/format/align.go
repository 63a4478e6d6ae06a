package format

// Align returns n aligned up to the next Alignment (16-byte) boundary.
//
// Example:
//
//	Align(1)  = 16
//	Align(16) = 16
//	Align(17) = 32
func Align(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// IsAligned reports whether n sits on an Alignment boundary.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize converts a caller request into a block size: one header word
// plus a payload large enough to later hold the free-list links and footer,
// rounded up to the alignment unit.
//
// Example:
//
//	AdjustedSize(1)  = 32
//	AdjustedSize(24) = 32
//	AdjustedSize(25) = 48
func AdjustedSize(n int) int {
	return Align(WordSize + max(n, WordSize+2*PointerSize))
}

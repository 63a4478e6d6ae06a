package mm

import "github.com/joshuapare/segalloc/internal/format"

// NumLists is the number of segregated buckets.
const NumLists = 16

// bucket0Max is the largest payload held by bucket 0: room for two links.
const bucket0Max = 2 * format.PointerSize

// findList maps a payload capacity to its bucket. Bucket i covers
// (16<<(i-1), 16<<i]; bucket 0 covers [1, 16] and the last bucket is open.
func findList(payload int) int {
	index, capacity := 1, bucket0Max
	for payload > capacity && index < NumLists {
		capacity <<= 1
		index++
	}
	return index - 1
}

// BucketOf returns the bucket a free block of the given total size belongs to.
func BucketOf(blockSize int) int {
	return findList(blockSize - wsize)
}

// BucketRange returns the inclusive payload capacity range of bucket i.
// hi is -1 for the last, unbounded bucket.
func BucketRange(i int) (lo, hi int) {
	if i < 0 || i >= NumLists {
		return 0, 0
	}
	capacity := bucket0Max << i
	if i == 0 {
		lo = 1
	} else {
		lo = capacity/2 + 1
	}
	if i == NumLists-1 {
		return lo, -1
	}
	return lo, capacity
}

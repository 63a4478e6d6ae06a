package mm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindList(t *testing.T) {
	tests := []struct {
		payload int
		want    int
	}{
		{1, 0},
		{16, 0},
		{17, 1},
		{24, 1},
		{32, 1},
		{33, 2},
		{64, 2},
		{65, 3},
		{4072, 8},
		{16 << 14, 14},
		{16<<14 + 1, 15},
		{1 << 40, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, findList(tt.payload), "payload %d", tt.payload)
	}
}

func TestBucketRange(t *testing.T) {
	lo, hi := BucketRange(0)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 16, hi)

	lo, hi = BucketRange(1)
	assert.Equal(t, 17, lo)
	assert.Equal(t, 32, hi)

	lo, hi = BucketRange(NumLists - 1)
	assert.Equal(t, 16<<14+1, lo)
	assert.Equal(t, -1, hi)

	lo, hi = BucketRange(NumLists)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	// Ranges tile the payload space with no gaps.
	for i := range NumLists - 1 {
		lo, hi := BucketRange(i)
		assert.Equal(t, i, findList(lo))
		assert.Equal(t, i, findList(hi))
		next, _ := BucketRange(i + 1)
		assert.Equal(t, hi+1, next)
	}
}

func TestBucketOf(t *testing.T) {
	assert.Equal(t, 1, BucketOf(32))
	assert.Equal(t, 2, BucketOf(48))
	assert.Equal(t, 2, BucketOf(64))
	assert.Equal(t, 3, BucketOf(80))
}

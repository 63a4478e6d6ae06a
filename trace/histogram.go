package trace

import "slices"

// SizeCount is one histogram bucket.
type SizeCount struct {
	Size  int
	Count int
}

// Histogram summarizes the sizes requested by a trace's alloc and realloc ops.
type Histogram struct {
	Requests int
	Min      int
	Max      int
	Sizes    []SizeCount // ascending by Size
}

// SizeHistogram counts each distinct request size.
func SizeHistogram(t *Trace) Histogram {
	counts := make(map[int]int)
	var h Histogram
	for _, op := range t.Ops {
		if op.Kind == OpFree {
			continue
		}
		if h.Requests == 0 || op.Size < h.Min {
			h.Min = op.Size
		}
		h.Max = max(h.Max, op.Size)
		h.Requests++
		counts[op.Size]++
	}

	h.Sizes = make([]SizeCount, 0, len(counts))
	for size, n := range counts {
		h.Sizes = append(h.Sizes, SizeCount{Size: size, Count: n})
	}
	slices.SortFunc(h.Sizes, func(a, b SizeCount) int { return a.Size - b.Size })
	return h
}

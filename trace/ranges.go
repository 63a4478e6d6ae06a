package trace

import "github.com/google/btree"

// span is a live payload range [lo, hi) owned by id.
type span struct {
	lo, hi int
	id     int
}

// liveSet indexes live payload ranges by start offset for overlap checks.
type liveSet struct {
	tree *btree.BTreeG[span]
}

func newLiveSet() *liveSet {
	return &liveSet{
		tree: btree.NewG[span](16, func(a, b span) bool { return a.lo < b.lo }),
	}
}

// overlapping returns a live span intersecting [lo, hi), if any.
func (s *liveSet) overlapping(lo, hi int) (span, bool) {
	var hit span
	found := false
	s.tree.DescendLessOrEqual(span{lo: lo}, func(prev span) bool {
		if prev.hi > lo {
			hit, found = prev, true
		}
		return false
	})
	if found {
		return hit, true
	}
	s.tree.AscendGreaterOrEqual(span{lo: lo}, func(next span) bool {
		if next.lo < hi {
			hit, found = next, true
		}
		return false
	})
	return hit, found
}

func (s *liveSet) add(sp span) { s.tree.ReplaceOrInsert(sp) }

func (s *liveSet) remove(lo int) { s.tree.Delete(span{lo: lo}) }

func (s *liveSet) len() int { return s.tree.Len() }

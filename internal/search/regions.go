package search

import (
	"sort"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

// regionSet is a sorted set of disjoint, non-adjacent byte ranges.
// Adding a range merges it with every range it touches.
type regionSet struct {
	ranges []buffer.Range
}

func (s *regionSet) clone() regionSet {
	return regionSet{ranges: append([]buffer.Range(nil), s.ranges...)}
}

func (s *regionSet) clear() {
	s.ranges = s.ranges[:0]
}

func (s *regionSet) empty() bool {
	return len(s.ranges) == 0
}

// add inserts r, coalescing with overlapping or adjacent ranges.
func (s *regionSet) add(r buffer.Range) {
	if r.IsEmpty() {
		return
	}
	// First range that ends at or after r.Start can merge with r.
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End >= r.Start })
	j := i
	for j < len(s.ranges) && s.ranges[j].Start <= r.End {
		r = r.Union(s.ranges[j])
		j++
	}
	s.ranges = append(s.ranges[:i], append([]buffer.Range{r}, s.ranges[j:]...)...)
}

// remove subtracts r from the set.
func (s *regionSet) remove(r buffer.Range) {
	if r.IsEmpty() || len(s.ranges) == 0 {
		return
	}
	out := s.ranges[:0:0]
	for _, cur := range s.ranges {
		if !cur.Overlaps(r) {
			out = append(out, cur)
			continue
		}
		if cur.Start < r.Start {
			out = append(out, buffer.Range{Start: cur.Start, End: r.Start})
		}
		if cur.End > r.End {
			out = append(out, buffer.Range{Start: r.End, End: cur.End})
		}
	}
	s.ranges = out
}

// applyChange maps every range through an edit. Parts inside the replaced
// text collapse onto the new text.
func (s *regionSet) applyChange(c buffer.Change) {
	out := s.ranges[:0:0]
	for _, r := range s.ranges {
		mapped := buffer.Range{
			Start: mapOffset(r.Start, c, false),
			End:   mapOffset(r.End, c, true),
		}
		if mapped.End < mapped.Start {
			mapped.End = mapped.Start
		}
		if !mapped.IsEmpty() {
			out = append(out, mapped)
		}
	}
	s.ranges = nil
	for _, r := range out {
		s.add(r)
	}
}

// firstAfter returns the first range that ends after pos.
func (s *regionSet) firstAfter(pos buffer.ByteOffset) (buffer.Range, bool) {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].End > pos })
	if i == len(s.ranges) {
		return buffer.Range{}, false
	}
	return s.ranges[i], true
}

// lastBefore returns the last range that starts before pos.
func (s *regionSet) lastBefore(pos buffer.ByteOffset) (buffer.Range, bool) {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Start >= pos })
	if i == 0 {
		return buffer.Range{}, false
	}
	return s.ranges[i-1], true
}

// mapOffset maps a pre-edit offset to its post-edit position. Offsets
// strictly inside the replaced text go to the start of the new text, or its
// end when toEnd is set.
func mapOffset(off buffer.ByteOffset, c buffer.Change, toEnd bool) buffer.ByteOffset {
	switch {
	case off <= c.Range.Start:
		return off
	case off >= c.Range.End:
		return off + c.Delta()
	case toEnd:
		return c.NewRange.End
	default:
		return c.Range.Start
	}
}

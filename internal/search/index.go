package search

import (
	"sort"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

// index is the set of known matches plus the regions of the buffer whose
// matches are not known yet. Outside the stale regions the match list is
// exactly what a full scan would produce.
type index struct {
	matches []buffer.Range // sorted by start, never overlapping
	stale   regionSet
	length  buffer.ByteOffset
}

func (ix *index) clone() *index {
	return &index{
		matches: append([]buffer.Range(nil), ix.matches...),
		stale:   ix.stale.clone(),
		length:  ix.length,
	}
}

// invalidateAll forgets every match and marks the whole document stale.
func (ix *index) invalidateAll(length buffer.ByteOffset) {
	ix.matches = ix.matches[:0]
	ix.stale.clear()
	ix.length = length
	if length > 0 {
		ix.stale.add(buffer.Range{Start: 0, End: length})
	}
}

// reset forgets every match and marks nothing stale. Used when there is no
// pattern to match.
func (ix *index) reset(length buffer.ByteOffset) {
	ix.matches = ix.matches[:0]
	ix.stale.clear()
	ix.length = length
}

// fullyValid reports whether no region is waiting for a scan.
func (ix *index) fullyValid() bool {
	return ix.stale.empty()
}

// applyChange updates the index for an edit. Matches touching the edited
// range are dropped, later matches move by the length delta and dirty,
// given in post-edit offsets, becomes stale. So does the span of every
// dropped match, up to and including the offset where it ended.
func (ix *index) applyChange(c buffer.Change, dirty buffer.Range) {
	delta := c.Delta()
	out := ix.matches[:0]
	var dropped []buffer.Range
	for _, m := range ix.matches {
		switch {
		case m.End < c.Range.Start:
			out = append(out, m)
		case m.Start > c.Range.End:
			out = append(out, m.Shift(delta))
		default:
			dropped = append(dropped, buffer.Range{
				Start: mapOffset(m.Start, c, false),
				End:   mapOffset(m.End, c, true) + 1,
			})
		}
	}
	ix.matches = out
	ix.length += delta

	ix.stale.applyChange(c)
	ix.stale.add(dirty.Clamp(ix.length))
	for _, r := range dropped {
		ix.stale.add(r.Clamp(ix.length))
	}
}

// commit records the result of scanning region. found holds every match
// starting in region, sorted. A region ending at the end of the document
// also owns the empty position there.
func (ix *index) commit(region buffer.Range, found []buffer.Range) {
	atEnd := region.End >= ix.length
	startsIn := func(m buffer.Range) bool {
		return m.Start >= region.Start && (m.Start < region.End || atEnd && m.Start == region.End)
	}

	lo := sort.Search(len(ix.matches), func(i int) bool { return ix.matches[i].Start >= region.Start })
	hi := lo
	for hi < len(ix.matches) && startsIn(ix.matches[hi]) {
		hi++
	}

	// A validated match that begins before the region and runs into it
	// hides any match starting under it. An empty match may not abut the
	// match before it.
	prevEnd := buffer.ByteOffset(-1)
	if lo > 0 {
		prevEnd = ix.matches[lo-1].End
	}
	kept := make([]buffer.Range, 0, len(found))
	for _, f := range found {
		if !startsIn(f) || f.Start < prevEnd || (f.IsEmpty() && f.Start == prevEnd) {
			continue
		}
		kept = append(kept, f)
		prevEnd = f.End
	}

	// Matches that run past the region evict the validated matches they
	// cover.
	validEnd := region.End
	newEnd := buffer.ByteOffset(-1)
	if n := len(kept); n > 0 {
		last := kept[n-1]
		newEnd = last.End
		validEnd = max(validEnd, last.End)
		for hi < len(ix.matches) {
			next := ix.matches[hi]
			if next.Start >= last.End && !(next.IsEmpty() && next.Start == last.End) {
				break
			}
			hi++
		}
	}

	// Text after a removed match that reached validEnd was scanned as if
	// that match still ended there. It is rescanned, including the offset
	// where the match ended, unless a kept match ends at the same place.
	oldEnd := buffer.ByteOffset(-1)
	for _, m := range ix.matches[lo:hi] {
		oldEnd = max(oldEnd, m.End)
	}
	var reopen buffer.Range
	if oldEnd >= validEnd && oldEnd != newEnd && validEnd < ix.length {
		reopen = buffer.Range{Start: validEnd, End: min(oldEnd+1, ix.length)}
	}

	merged := make([]buffer.Range, 0, len(ix.matches)-(hi-lo)+len(kept))
	merged = append(merged, ix.matches[:lo]...)
	merged = append(merged, kept...)
	merged = append(merged, ix.matches[hi:]...)
	ix.matches = merged

	ix.stale.remove(buffer.Range{Start: region.Start, End: validEnd})
	ix.stale.add(reopen)
}

// first returns the index of the first match starting at or after pos.
func (ix *index) first(pos buffer.ByteOffset) int {
	return sort.Search(len(ix.matches), func(i int) bool { return ix.matches[i].Start >= pos })
}

// lastEndingBy returns the index of the last match ending at or before pos,
// or -1.
func (ix *index) lastEndingBy(pos buffer.ByteOffset) int {
	// Matches do not overlap, so ends are sorted like starts.
	return sort.Search(len(ix.matches), func(i int) bool { return ix.matches[i].End > pos }) - 1
}

// in returns the matches that intersect r. Empty matches count when they
// lie inside r or at its start.
func (ix *index) in(r buffer.Range) []buffer.Range {
	i := sort.Search(len(ix.matches), func(i int) bool {
		m := ix.matches[i]
		return m.End > r.Start || (m.IsEmpty() && m.Start >= r.Start)
	})
	var out []buffer.Range
	for ; i < len(ix.matches); i++ {
		m := ix.matches[i]
		if m.Start >= r.End && !(m.Start == r.End && r.IsEmpty()) {
			break
		}
		out = append(out, m)
	}
	return out
}

// rank returns the 1-based position of the match exactly equal to m, or 0.
func (ix *index) rank(m buffer.Range) int {
	i := ix.first(m.Start)
	if i < len(ix.matches) && ix.matches[i] == m {
		return i + 1
	}
	return 0
}

func (ix *index) count() int {
	return len(ix.matches)
}

// staleFrom returns the first stale region holding a match start at or
// after pos. A region ending at the end of the buffer holds the empty
// position there.
func (ix *index) staleFrom(pos buffer.ByteOffset) (buffer.Range, bool) {
	s, ok := ix.stale.firstAfter(pos - 1)
	if ok && s.End == pos && pos < ix.length {
		return ix.stale.firstAfter(pos)
	}
	return s, ok
}

// staleBefore returns the last stale region holding a match start before
// pos.
func (ix *index) staleBefore(pos buffer.ByteOffset) (buffer.Range, bool) {
	return ix.stale.lastBefore(pos)
}

package search

import "github.com/dshills/sourcesearch/internal/engine/buffer"

// UpdateHighlight makes sure the matches in [start, end) are known so they
// can be painted. With synchronous set the range is scanned before
// returning; otherwise it is scanned in steps on the loop. Regions whose
// matches become known are reported to the highlight listener. Nothing
// happens while highlighting is off.
func (c *Context) UpdateHighlight(start, end buffer.ByteOffset, synchronous bool) {
	if c.closed || !c.highlight || c.matcher == nil {
		return
	}
	r := buffer.NewRange(start, end).Clamp(c.buf.Len())
	if synchronous {
		c.scanRange(r)
		return
	}
	if r.IsEmpty() {
		return
	}
	c.highlightWant.add(r)
	if !c.highlightJob.Active() {
		c.highlightJob = c.loop.Idle(c.highlightStep)
	}
}

// highlightStep scans one chunk of the first requested range that still
// has unscanned parts.
func (c *Context) highlightStep() bool {
	if c.closed || !c.highlight || c.matcher == nil {
		c.highlightWant.clear()
		return false
	}
	for {
		want, ok := c.highlightWant.firstAfter(-1)
		if !ok {
			return false
		}
		s, ok := c.ix.staleFrom(c.syncFrom(want.Start))
		if !ok || s.Start >= want.End {
			c.highlightWant.remove(want)
			continue
		}
		chunk := c.nextChunk(c.trimFront(s, want.Start))
		c.scanInto(chunk)
		c.highlightWant.remove(buffer.Range{Start: want.Start, End: max(chunk.End, want.Start)})
		return true
	}
}

// Matches returns the known matches intersecting r. Unscanned parts of r
// contribute nothing; call UpdateHighlight first to scan them.
func (c *Context) Matches(r buffer.Range) []Match {
	if c.matcher == nil {
		return nil
	}
	found := c.ix.in(r)
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{Start: m.Start, End: m.End}
	}
	return out
}

// announce reports a freshly scanned region to the highlight listener when
// it holds matches.
func (c *Context) announce(res scanResult) {
	if len(res.found) == 0 {
		return
	}
	r := res.region
	r.End = max(r.End, res.found[len(res.found)-1].End)
	c.invalidateHighlight(r)
}

func (c *Context) invalidateHighlight(r buffer.Range) {
	if c.highlight && c.listener != nil {
		c.listener.HighlightInvalidated(r)
	}
}

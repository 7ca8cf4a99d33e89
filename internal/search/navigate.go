package search

import (
	"fmt"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

// Match is one occurrence of the search pattern.
type Match struct {
	Start   buffer.ByteOffset
	End     buffer.ByteOffset
	Wrapped bool // found after wrapping around the buffer edge
}

// Range returns the matched byte range.
func (m Match) Range() buffer.Range {
	return buffer.Range{Start: m.Start, End: m.End}
}

// String returns a string representation of the match.
func (m Match) String() string {
	if m.Wrapped {
		return fmt.Sprintf("[%d, %d) wrapped", m.Start, m.End)
	}
	return fmt.Sprintf("[%d, %d)", m.Start, m.End)
}

// Forward returns the first match starting at or after pos. An empty match
// exactly at pos is skipped so that repeated searches make progress. With
// wrap-around enabled the search continues from the start of the buffer.
func (c *Context) Forward(pos buffer.ByteOffset) (Match, bool) {
	return c.search(pos, true)
}

// Backward returns the last match ending at or before pos. An empty match
// exactly at pos is skipped. With wrap-around enabled the search continues
// from the end of the buffer.
func (c *Context) Backward(pos buffer.ByteOffset) (Match, bool) {
	return c.search(pos, false)
}

func (c *Context) search(pos buffer.ByteOffset, forward bool) (Match, bool) {
	if c.matcher == nil {
		return Match{}, false
	}
	pos = min(max(pos, 0), c.buf.Len())

	if r, ok := c.run(c.ix, pos, forward, true, nil); ok {
		return Match{Start: r.Start, End: r.End}, true
	}
	if !c.matcher.query.WrapAround {
		return Match{}, false
	}
	r, ok := c.run(c.ix, c.wrapStart(forward), forward, false, nil)
	if !ok {
		return Match{}, false
	}
	return Match{Start: r.Start, End: r.End, Wrapped: true}, true
}

func (c *Context) wrapStart(forward bool) buffer.ByteOffset {
	if forward {
		return 0
	}
	return c.buf.Len()
}

// run steps a search to completion.
func (c *Context) run(ix *index, pos buffer.ByteOffset, forward, skipEmpty bool, staged *[]scanResult) (buffer.Range, bool) {
	for {
		r, found, done := c.step(ix, pos, forward, skipEmpty, staged)
		if done {
			return r, found
		}
	}
}

// step either settles the search in ix or scans one more chunk of it.
// Scans of the live index are committed and announced; scans of any other
// index are appended to staged.
func (c *Context) step(ix *index, pos buffer.ByteOffset, forward, skipEmpty bool, staged *[]scanResult) (r buffer.Range, found, done bool) {
	if c.matcher == nil {
		return buffer.Range{}, false, true
	}

	var region buffer.Range
	if forward {
		i := ix.first(pos)
		if skipEmpty && i < len(ix.matches) && ix.matches[i].IsEmpty() && ix.matches[i].Start == pos {
			i++
		}
		candStart := ix.length + 1
		if i < len(ix.matches) {
			r, found = ix.matches[i], true
			candStart = r.Start
		}
		s, ok := ix.staleFrom(c.syncFrom(pos))
		if !ok || s.Start > candStart {
			return r, found, true
		}
		region = c.nextChunk(c.trimFront(s, pos))
	} else {
		j := ix.lastEndingBy(pos)
		if skipEmpty && j >= 0 && ix.matches[j].IsEmpty() && ix.matches[j].Start == pos {
			j--
		}
		candStart := buffer.ByteOffset(-1)
		if j >= 0 {
			r, found = ix.matches[j], true
			candStart = r.Start
		}
		if c.matcher.spansLines() {
			// Every match before pos depends on all the text before it.
			s, ok := ix.stale.firstAfter(-1)
			if !ok || s.Start >= pos {
				return r, found, true
			}
			region = c.nextChunk(s)
		} else {
			// Unscanned text on the candidate's line can still hide it.
			settled := candStart
			if j >= 0 {
				settled = c.buf.LineStartAt(candStart)
			}
			s, ok := ix.staleBefore(pos)
			if !ok || s.End <= settled {
				return r, found, true
			}
			region = c.prevChunk(trimBack(s, pos))
		}
	}

	res := c.scan(ix, region)
	ix.commit(res.region, res.found)
	if ix == c.ix {
		c.announce(res)
	} else if staged != nil {
		*staged = append(*staged, res)
	}
	return buffer.Range{}, false, false
}

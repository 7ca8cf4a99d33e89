package search

import (
	"unicode/utf8"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

// longLineFactor bounds a chunk in a single long line to this many chunk
// sizes before it is cut at a character boundary.
const longLineFactor = 4

// scanResult is one scanned region and the matches starting in it.
type scanResult struct {
	region buffer.Range
	found  []buffer.Range
}

// window builds the text window for scanning region. The window reaches
// back to the start of the line, and at least one character before
// region, and forward far enough that matches starting in region can
// complete. It always covers minEnd.
func (c *Context) window(region buffer.Range, minEnd buffer.ByteOffset) window {
	length := c.buf.Len()

	from := c.buf.LineStartAt(region.Start)
	if region.Start-from > buffer.ByteOffset(c.chunkSize) {
		from = c.runeStart(region.Start - buffer.ByteOffset(c.chunkSize))
	}
	if from == region.Start && from > 0 {
		from = c.runeStart(from - 1)
	}

	to := max(c.lookaheadEnd(region.End), minEnd)
	to = min(to, length)

	text := c.buf.TextRange(from, to)
	w := window{
		text:  text,
		base:  from,
		lead:  int(region.Start - from),
		limit: int(region.End - from),
	}
	if region.End >= length {
		// The empty position at the end of the buffer belongs to the
		// last region.
		w.limit = len(text) + 1
	}
	return w
}

// lookaheadEnd returns how far past end the scan text extends.
func (c *Context) lookaheadEnd(end buffer.ByteOffset) buffer.ByteOffset {
	length := c.buf.Len()
	if end >= length || c.matcher == nil {
		return length
	}
	if !c.matcher.query.Regex {
		// Case folding may change the byte length of a rune, so leave room
		// for the longest encoding plus a cluster for the word check.
		return min(end+buffer.ByteOffset(utf8.UTFMax*len(c.matcher.query.Text)+clusterLookback), length)
	}

	limit := min(end+maxLookahead, length)
	if c.matcher.span < 0 {
		if limit == length {
			return length
		}
		return c.runeStart(limit)
	}
	lines := max(c.lookaheadLines, c.matcher.span+1)
	to := c.buf.LineEndAt(end)
	for i := 0; i < lines && to < limit; i++ {
		to = c.buf.LineEndAt(to + 1)
	}
	if to < length {
		to++
	}
	if to > limit {
		to = c.runeStart(limit)
	}
	return to
}

// runeStart moves off back to the start of the rune containing it.
func (c *Context) runeStart(off buffer.ByteOffset) buffer.ByteOffset {
	for i := 0; i < utf8.UTFMax && off > 0; i++ {
		b, ok := c.buf.ByteAt(off)
		if !ok || utf8.RuneStart(b) {
			break
		}
		off--
	}
	return off
}

// nextChunk returns the first chunk of r to scan when walking forward: a
// run of whole lines of about chunkSize bytes.
func (c *Context) nextChunk(r buffer.Range) buffer.Range {
	size := buffer.ByteOffset(c.chunkSize)
	if r.Len() <= size {
		return r
	}
	end := c.buf.LineEndAt(r.Start + size)
	if end < r.End {
		end++
	}
	if end-r.Start > longLineFactor*size {
		end = c.runeStart(r.Start + longLineFactor*size)
	}
	return buffer.Range{Start: r.Start, End: min(end, r.End)}
}

// prevChunk returns the last chunk of r to scan when walking backward.
func (c *Context) prevChunk(r buffer.Range) buffer.Range {
	size := buffer.ByteOffset(c.chunkSize)
	if r.Len() <= size {
		return r
	}
	start := c.buf.LineStartAt(r.End - size)
	if r.End-start > longLineFactor*size {
		start = c.runeStart(r.End - longLineFactor*size)
	}
	return buffer.Range{Start: max(start, r.Start), End: r.End}
}

// scan finds the matches starting in region. The region is first widened
// back to a point where ix knows everything that comes before, and the
// search resumes after the last known match running into it.
func (c *Context) scan(ix *index, region buffer.Range) scanResult {
	region.Start = c.syncStart(ix, region.Start)
	w := c.window(region, region.End)
	for w.lead < len(w.text) && !utf8.RuneStart(w.text[w.lead]) {
		w.lead++
	}
	if i := ix.first(region.Start); i > 0 {
		if prev := ix.matches[i-1]; prev.End >= region.Start {
			w.lead = max(w.lead, int(prev.End-w.base))
			w.afterMatch = true
		}
	}
	found := c.matcher.find(w)
	c.rec.ChunkScanned(int64(region.Len()), len(found))
	return scanResult{region: region, found: found}
}

// syncFrom returns the earliest offset whose text can decide the matches
// from pos on. Matches that cannot cross a line break restart at every
// line; the others depend on everything before them.
func (c *Context) syncFrom(pos buffer.ByteOffset) buffer.ByteOffset {
	if c.matcher.spansLines() {
		return 0
	}
	return c.buf.LineStartAt(pos)
}

// syncStart moves start back to the first stale offset at or after
// syncFrom(start), so that the scan does not begin behind text ix has not
// seen.
func (c *Context) syncStart(ix *index, start buffer.ByteOffset) buffer.ByteOffset {
	from := c.syncFrom(start)
	if s, ok := ix.stale.firstAfter(from); ok && s.Start < start {
		return max(s.Start, from)
	}
	return start
}

// scanInto scans region and commits the result to the live index.
func (c *Context) scanInto(region buffer.Range) {
	res := c.scan(c.ix, region)
	c.ix.commit(res.region, res.found)
	c.announce(res)
}

// scanAll validates the whole buffer.
func (c *Context) scanAll() {
	if c.matcher == nil {
		return
	}
	for {
		r, ok := c.ix.stale.firstAfter(-1)
		if !ok {
			return
		}
		c.scanInto(c.nextChunk(r))
	}
}

// scanRange validates the match starts in r, or the single position r.Start
// when r is empty.
func (c *Context) scanRange(r buffer.Range) {
	if c.matcher == nil {
		return
	}
	for {
		s, ok := c.ix.staleFrom(c.syncFrom(r.Start))
		if !ok || (s.Start >= r.End && s.Start > r.Start) {
			return
		}
		c.scanInto(c.nextChunk(c.trimFront(s, r.Start)))
	}
}

// trimFront drops the part of stale region s before syncFrom(pos), keeping
// at least the end of s.
func (c *Context) trimFront(s buffer.Range, pos buffer.ByteOffset) buffer.Range {
	if start := c.syncFrom(pos); start > s.Start && start < s.End {
		s.Start = start
	}
	return s
}

// trimBack drops the part of stale region s at or after pos.
func trimBack(s buffer.Range, pos buffer.ByteOffset) buffer.Range {
	if pos > s.Start && pos < s.End {
		s.End = pos
	}
	return s
}

package search

import "github.com/dshills/sourcesearch/internal/engine/buffer"

// OccurrencesCount returns the number of matches in the buffer. Unless lazy
// counting is enabled this scans every unscanned part of the buffer first,
// which costs time proportional to the buffer size. With lazy counting it
// returns -1 while parts are unscanned and schedules a background scan.
func (c *Context) OccurrencesCount() int {
	if c.matcher == nil {
		return 0
	}
	if !c.ensureScanned() {
		return -1
	}
	return c.ix.count()
}

// OccurrencePosition returns the 1-based rank of the match [start, end)
// among all matches, -1 if the range is not a match, or 0 if the buffer is
// not scanned yet (lazy counting only).
func (c *Context) OccurrencePosition(start, end buffer.ByteOffset) int {
	if c.matcher == nil {
		return -1
	}
	if !c.ensureScanned() {
		return 0
	}
	if rank := c.ix.rank(buffer.Range{Start: start, End: end}); rank > 0 {
		return rank
	}
	return -1
}

// ensureScanned validates the whole buffer, or in lazy mode schedules that
// and reports whether it is already done.
func (c *Context) ensureScanned() bool {
	if c.ix.fullyValid() {
		return true
	}
	if c.lazy {
		c.scheduleCount()
		return false
	}
	c.scanAll()
	return true
}

func (c *Context) scheduleCount() {
	if c.countJob.Active() {
		return
	}
	c.countJob = c.loop.Idle(func() bool {
		if c.closed || c.matcher == nil {
			return false
		}
		r, ok := c.ix.stale.firstAfter(-1)
		if !ok {
			c.log.Debug("background count finished: %d", c.ix.count())
			return false
		}
		c.scanInto(c.nextChunk(r))
		return true
	})
}

package search

import (
	"fmt"

	"github.com/dshills/sourcesearch/internal/engine/buffer"
)

// Replace replaces the match [start, end) with text as one buffer edit. In
// regex mode text may refer to the match's groups. ErrStaleMatch is
// returned if [start, end) is not a current match.
func (c *Context) Replace(start, end buffer.ByteOffset, text string) error {
	if c.closed {
		return ErrClosed
	}
	if c.matcher == nil {
		return ErrStaleMatch
	}
	target := buffer.Range{Start: start, End: end}
	if start < 0 || !target.IsValid() || end > c.buf.Len() {
		return ErrStaleMatch
	}

	c.scanRange(buffer.Range{Start: start, End: start})
	if c.ix.rank(target) == 0 {
		return ErrStaleMatch
	}

	repl, ok := c.matcher.replacement(c.window(target, end), start, end, text)
	if !ok {
		return ErrStaleMatch
	}
	if _, err := c.buf.Replace(start, end, repl); err != nil {
		return fmt.Errorf("replace match %v: %w", target, err)
	}
	c.rec.Replaced(1)
	return nil
}

// ReplaceAll replaces every match with text and returns how many were
// replaced. Matches are taken from the buffer as it was before the call and
// replaced in one forward pass; text inserted by a replacement is never
// matched again. The index is rebuilt once afterward.
func (c *Context) ReplaceAll(text string) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	if c.matcher == nil {
		return 0, nil
	}

	c.scanAll()
	matches := append([]buffer.Range(nil), c.ix.matches...)
	if len(matches) == 0 {
		return 0, nil
	}

	repls := make([]string, len(matches))
	for i, m := range matches {
		repl, ok := c.matcher.replacement(c.window(m, m.End), m.Start, m.End, text)
		if !ok {
			return 0, fmt.Errorf("expand replacement at %v: %w", m, ErrStaleMatch)
		}
		repls[i] = repl
	}

	c.replacing = true
	var delta buffer.ByteOffset
	n := 0
	var err error
	for i, m := range matches {
		start := m.Start + delta
		var newEnd buffer.ByteOffset
		newEnd, err = c.buf.Replace(start, m.End+delta, repls[i])
		if err != nil {
			err = fmt.Errorf("replace match %d of %d: %w", i+1, len(matches), err)
			break
		}
		delta += (newEnd - start) - m.Len()
		n++
	}
	c.replacing = false

	length := c.buf.Len()
	c.ix.invalidateAll(length)
	c.invalidateHighlight(buffer.Range{Start: 0, End: length})
	c.rec.Replaced(n)
	c.log.Debug("replaced %d matches", n)
	return n, err
}

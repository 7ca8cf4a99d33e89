package buffer

import (
	"bytes"
	"strings"
)

// minGap is the smallest gap left after growing the storage.
const minGap = 4096

// gapBuffer stores bytes with a movable hole at the edit point so that
// consecutive edits near the same place only move the bytes in between.
type gapBuffer struct {
	data     []byte
	gapStart int
	gapEnd   int
}

func newGapBuffer(s string) *gapBuffer {
	data := make([]byte, len(s)+minGap)
	copy(data, s)
	return &gapBuffer{data: data, gapStart: len(s), gapEnd: len(data)}
}

func (g *gapBuffer) gapLen() int {
	return g.gapEnd - g.gapStart
}

// Len returns the number of text bytes stored.
func (g *gapBuffer) Len() int {
	return len(g.data) - g.gapLen()
}

// moveGap moves the gap so that gapStart == pos.
func (g *gapBuffer) moveGap(pos int) {
	switch {
	case pos < g.gapStart:
		n := g.gapStart - pos
		copy(g.data[g.gapEnd-n:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart = pos
		g.gapEnd -= n
	case pos > g.gapStart:
		n := pos - g.gapStart
		copy(g.data[g.gapStart:g.gapStart+n], g.data[g.gapEnd:g.gapEnd+n])
		g.gapStart += n
		g.gapEnd += n
	}
}

// ensureGap grows the storage so the gap holds at least n bytes.
func (g *gapBuffer) ensureGap(n int) {
	if g.gapLen() >= n {
		return
	}
	newCap := max(len(g.data)*2, g.Len()+n+minGap)
	data := make([]byte, newCap)
	copy(data, g.data[:g.gapStart])
	suffix := len(g.data) - g.gapEnd
	copy(data[newCap-suffix:], g.data[g.gapEnd:])
	g.data = data
	g.gapEnd = newCap - suffix
}

// replace swaps [start, end) for text. Bounds are checked by the caller.
func (g *gapBuffer) replace(start, end int, text string) {
	g.moveGap(start)
	g.gapEnd += end - start
	g.ensureGap(len(text))
	copy(g.data[g.gapStart:], text)
	g.gapStart += len(text)
}

// slice returns the text in [start, end).
func (g *gapBuffer) slice(start, end int) string {
	if start >= end {
		return ""
	}
	if end <= g.gapStart {
		return string(g.data[start:end])
	}
	if start >= g.gapStart {
		return string(g.data[start+g.gapLen() : end+g.gapLen()])
	}
	var sb strings.Builder
	sb.Grow(end - start)
	sb.Write(g.data[start:g.gapStart])
	sb.Write(g.data[g.gapEnd : end+g.gapLen()])
	return sb.String()
}

// byteAt returns the byte at offset i. The caller checks bounds.
func (g *gapBuffer) byteAt(i int) byte {
	if i < g.gapStart {
		return g.data[i]
	}
	return g.data[i+g.gapLen()]
}

// segments returns the text as the two halves around the gap.
func (g *gapBuffer) segments() ([]byte, []byte) {
	return g.data[:g.gapStart], g.data[g.gapEnd:]
}

// count returns the number of occurrences of b in [start, end).
func (g *gapBuffer) count(start, end int, b byte) int {
	if start >= end {
		return 0
	}
	sep := []byte{b}
	n := 0
	if start < g.gapStart {
		n += bytes.Count(g.data[start:min(end, g.gapStart)], sep)
	}
	if end > g.gapStart {
		from := max(start, g.gapStart) + g.gapLen()
		n += bytes.Count(g.data[from:end+g.gapLen()], sep)
	}
	return n
}

// indexFrom returns the offset of the first b at or after start, or -1.
func (g *gapBuffer) indexFrom(start int, b byte) int {
	if start < g.gapStart {
		if i := bytes.IndexByte(g.data[start:g.gapStart], b); i >= 0 {
			return start + i
		}
		start = g.gapStart
	}
	if start >= g.Len() {
		return -1
	}
	if i := bytes.IndexByte(g.data[start+g.gapLen():], b); i >= 0 {
		return start + i
	}
	return -1
}

// lastIndexBefore returns the offset of the last b strictly before end, or -1.
func (g *gapBuffer) lastIndexBefore(end int, b byte) int {
	if end > g.gapStart {
		tail := g.data[g.gapEnd : end+g.gapLen()]
		if i := bytes.LastIndexByte(tail, b); i >= 0 {
			return g.gapStart + i
		}
		end = g.gapStart
	}
	return bytes.LastIndexByte(g.data[:end], b)
}

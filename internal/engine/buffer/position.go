package buffer

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// ByteOffset is a byte position in the buffer text.
type ByteOffset = int64

// Point is a zero-based line and byte column. String and ParsePoint use
// the one-based "LINE:COL" form that compilers and grep print.
type Point struct {
	Line   uint32
	Column uint32 // bytes from the start of the line
}

// String returns p as one-based "LINE:COL".
func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// ParsePoint parses a one-based "LINE:COL" pair.
func ParsePoint(s string) (Point, error) {
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return Point{}, fmt.Errorf("position %q is not LINE:COL", s)
	}
	l, err := strconv.ParseUint(line, 10, 32)
	if err != nil || l == 0 {
		return Point{}, fmt.Errorf("invalid line in position %q", s)
	}
	c, err := strconv.ParseUint(col, 10, 32)
	if err != nil || c == 0 {
		return Point{}, fmt.Errorf("invalid column in position %q", s)
	}
	return Point{Line: uint32(l - 1), Column: uint32(c - 1)}, nil
}

// RevisionID identifies the buffer text after an edit. IDs are unique
// across buffers, so a change carries an ID no other text ever had.
type RevisionID uint64

var lastRevision atomic.Uint64

func nextRevision() RevisionID {
	return RevisionID(lastRevision.Add(1))
}

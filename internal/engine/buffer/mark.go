package buffer

import "sort"

// Gravity decides which side of inserted text a mark ends up on when the
// insertion happens exactly at the mark.
type Gravity uint8

const (
	// GravityRight keeps the mark after text inserted at its position.
	GravityRight Gravity = iota
	// GravityLeft keeps the mark before text inserted at its position.
	GravityLeft
)

// Mark is a position that follows edits to the buffer.
type Mark struct {
	buf      *Buffer
	name     string
	category string
	gravity  Gravity
	offset   ByteOffset
	deleted  bool
}

// Name returns the mark name, or "" for anonymous marks.
func (m *Mark) Name() string { return m.name }

// Category returns the mark category.
func (m *Mark) Category() string { return m.category }

// Gravity returns the mark gravity.
func (m *Mark) Gravity() Gravity { return m.gravity }

// Offset returns the current position of the mark.
func (m *Mark) Offset() ByteOffset {
	m.buf.mu.RLock()
	defer m.buf.mu.RUnlock()
	return m.offset
}

// Deleted reports whether the mark was removed from its buffer.
func (m *Mark) Deleted() bool {
	m.buf.mu.RLock()
	defer m.buf.mu.RUnlock()
	return m.deleted
}

// CreateMark adds a mark at offset. An empty name creates an anonymous mark;
// a name already in use returns ErrMarkExists.
func (b *Buffer) CreateMark(name, category string, offset ByteOffset, gravity Gravity) (*Mark, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > ByteOffset(b.text.Len()) {
		return nil, ErrOffsetOutOfRange
	}
	if name != "" {
		if _, ok := b.named[name]; ok {
			return nil, ErrMarkExists
		}
	}

	m := &Mark{buf: b, name: name, category: category, gravity: gravity, offset: offset}
	b.marks = append(b.marks, m)
	if name != "" {
		b.named[name] = m
	}
	return m, nil
}

// DeleteMark removes a mark. Deleting a mark twice is a no-op.
func (b *Buffer) DeleteMark(m *Mark) {
	if m == nil || m.buf != b {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if m.deleted {
		return
	}
	m.deleted = true
	for i, other := range b.marks {
		if other == m {
			b.marks = append(b.marks[:i], b.marks[i+1:]...)
			break
		}
	}
	if m.name != "" {
		delete(b.named, m.name)
	}
}

// MarkByName returns the named mark, or nil.
func (b *Buffer) MarkByName(name string) *Mark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.named[name]
}

// MarksInCategory returns the marks of a category in position order.
// An empty category matches every mark.
func (b *Buffer) MarksInCategory(category string) []*Mark {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []*Mark
	for _, m := range b.marks {
		if category == "" || m.category == category {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].offset < result[j].offset
	})
	return result
}

// NextMark returns the first mark of the category positioned strictly after
// offset, or nil.
func (b *Buffer) NextMark(offset ByteOffset, category string) *Mark {
	var next *Mark
	for _, m := range b.MarksInCategory(category) {
		if m.Offset() > offset {
			next = m
			break
		}
	}
	return next
}

// PrevMark returns the last mark of the category positioned strictly before
// offset, or nil.
func (b *Buffer) PrevMark(offset ByteOffset, category string) *Mark {
	marks := b.MarksInCategory(category)
	for i := len(marks) - 1; i >= 0; i-- {
		if marks[i].Offset() < offset {
			return marks[i]
		}
	}
	return nil
}

// moveMarksLocked repositions marks after change. A replacement behaves as a
// deletion followed by an insertion at the same place.
func (b *Buffer) moveMarksLocked(change Change) {
	start, end := change.Range.Start, change.Range.End
	inserted := change.NewRange.Len()
	delta := change.Delta()

	for _, m := range b.marks {
		switch {
		case m.offset < start:
		case m.offset > end:
			m.offset += delta
		default:
			m.offset = start
			if m.gravity == GravityRight {
				m.offset += inserted
			}
		}
	}
}

package buffer

import (
	"cmp"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrMarkExists       = errors.New("mark name already in use")
	ErrEditsOverlap     = errors.New("edits overlap")
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
	LineEndingKeep                   // Store text exactly as given
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	case LineEndingKeep:
		return "keep"
	default:
		return "\\n"
	}
}

// Listener is notified after every edit.
type Listener interface {
	BufferChanged(change Change)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(change Change)

// BufferChanged calls f(change).
func (f ListenerFunc) BufferChanged(change Change) {
	f(change)
}

type subscription struct {
	id       uint64
	listener Listener
}

// Buffer is a mutable UTF-8 text buffer.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       *gapBuffer
	revisionID RevisionID
	lineEnding LineEnding

	marks []*Mark
	named map[string]*Mark

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	return NewBufferFromString("", opts...)
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := &Buffer{
		revisionID: nextRevision(),
		lineEnding: LineEndingLF,
		named:      make(map[string]*Mark),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.text = newGapBuffer(b.normalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	// Read everything first so CRLF pairs split across reads normalize correctly.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// normalizeLineEndings converts all line endings to the buffer's preferred style.
func (b *Buffer) normalizeLineEndings(s string) string {
	switch b.lineEnding {
	case LineEndingKeep:
		return s
	case LineEndingLF:
		if !strings.Contains(s, "\r") {
			return s
		}
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	case LineEndingCRLF:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
		s = strings.ReplaceAll(s, "\n", "\r\n")
	case LineEndingCR:
		if !strings.Contains(s, "\n") {
			return s
		}
		s = strings.ReplaceAll(s, "\r\n", "\r")
		s = strings.ReplaceAll(s, "\n", "\r")
	}
	return s
}

// Read Operations

// Text returns the full buffer content as a string.
// For large buffers, prefer TextRange.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text.slice(0, b.text.Len())
}

// TextRange returns text in the given byte range, clamped to the buffer.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r := Range{Start: start, End: end}.Clamp(ByteOffset(b.text.Len()))
	return b.text.slice(int(r.Start), int(r.End))
}

// WriteTo writes the buffer content to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	head, tail := b.text.segments()
	n, err := w.Write(head)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(tail)
	return int64(n + m), err
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(b.text.Len())
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(b.text.count(0, b.text.Len(), '\n')) + 1
}

// LineText returns the text of a specific line (without newline).
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	start := b.lineStartLocked(line)
	return b.text.slice(int(start), int(b.lineEndAtLocked(start)))
}

// ByteAt returns the byte at the given offset.
func (b *Buffer) ByteAt(offset ByteOffset) (byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if offset < 0 || offset >= ByteOffset(b.text.Len()) {
		return 0, false
	}
	return b.text.byteAt(int(offset)), true
}

// RuneAt returns the rune starting at the given byte offset.
// Returns utf8.RuneError and size 0 if offset is out of range.
func (b *Buffer) RuneAt(offset ByteOffset) (rune, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := ByteOffset(b.text.Len())
	if offset < 0 || offset >= n {
		return utf8.RuneError, 0
	}
	end := min(offset+utf8.UTFMax, n)
	return utf8.DecodeRuneInString(b.text.slice(int(offset), int(end)))
}

// RuneBefore returns the rune ending at the given byte offset.
// Returns utf8.RuneError and size 0 at the start of the buffer.
func (b *Buffer) RuneBefore(offset ByteOffset) (rune, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset <= 0 || offset > ByteOffset(b.text.Len()) {
		return utf8.RuneError, 0
	}
	start := max(offset-utf8.UTFMax, 0)
	return utf8.DecodeLastRuneInString(b.text.slice(int(start), int(offset)))
}

// Coordinate Conversion

// OffsetToPoint converts a byte offset to line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset = min(max(offset, 0), ByteOffset(b.text.Len()))
	line := b.text.count(0, int(offset), '\n')
	start := b.lineStartAtLocked(offset)
	return Point{Line: uint32(line), Column: uint32(offset - start)}
}

// PointToOffset converts line/column to byte offset.
// The column is clamped to the end of the line.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := b.lineStartLocked(point.Line)
	end := b.lineEndAtLocked(start)
	return min(start+ByteOffset(point.Column), end)
}

// LineStartOffset returns the byte offset of the start of a line.
// Lines past the end map to the buffer length.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineStartLocked(line)
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEndAtLocked(b.lineStartLocked(line))
}

// LineStartAt returns the start of the line containing offset.
func (b *Buffer) LineStartAt(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineStartAtLocked(min(max(offset, 0), ByteOffset(b.text.Len())))
}

// LineEndAt returns the end of the line containing offset (before newline).
func (b *Buffer) LineEndAt(offset ByteOffset) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEndAtLocked(min(max(offset, 0), ByteOffset(b.text.Len())))
}

func (b *Buffer) lineStartLocked(line uint32) ByteOffset {
	pos := 0
	for i := uint32(0); i < line; i++ {
		nl := b.text.indexFrom(pos, '\n')
		if nl < 0 {
			return ByteOffset(b.text.Len())
		}
		pos = nl + 1
	}
	return ByteOffset(pos)
}

func (b *Buffer) lineStartAtLocked(offset ByteOffset) ByteOffset {
	return ByteOffset(b.text.lastIndexBefore(int(offset), '\n') + 1)
}

func (b *Buffer) lineEndAtLocked(offset ByteOffset) ByteOffset {
	if nl := b.text.indexFrom(int(offset), '\n'); nl >= 0 {
		return ByteOffset(nl)
	}
	return ByteOffset(b.text.Len())
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	return b.Replace(offset, offset, text)
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	_, err := b.Replace(start, end, "")
	return err
}

// Replace replaces text in the given range with new text as a single edit.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	change, err := b.apply(start, end, text)
	if err != nil {
		return 0, err
	}
	b.notify(change)
	return change.NewRange.End, nil
}

// ApplyEdit applies a single edit and returns the resulting change.
func (b *Buffer) ApplyEdit(edit Edit) (Change, error) {
	change, err := b.apply(edit.Range.Start, edit.Range.End, edit.NewText)
	if err != nil {
		return Change{}, err
	}
	b.notify(change)
	return change, nil
}

// ApplyEdits applies several non-overlapping edits given in original
// offsets. Edits are applied from the end of the buffer backward so every
// offset stays valid; listeners see one change per edit in that order.
func (b *Buffer) ApplyEdits(edits []Edit) ([]Change, error) {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, c Edit) int {
		return cmp.Compare(a.Range.Start, c.Range.Start)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Range.Start < sorted[i-1].Range.End {
			return nil, ErrEditsOverlap
		}
	}

	changes := make([]Change, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		change, err := b.ApplyEdit(sorted[i])
		if err != nil {
			return changes, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (b *Buffer) apply(start, end ByteOffset, text string) (Change, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := ByteOffset(b.text.Len())
	if start == end && (start < 0 || start > n) {
		return Change{}, ErrOffsetOutOfRange
	}
	if start < 0 || start > end || end > n {
		return Change{}, ErrRangeInvalid
	}

	text = b.normalizeLineEndings(text)
	oldText := b.text.slice(int(start), int(end))
	b.text.replace(int(start), int(end), text)
	b.revisionID = nextRevision()

	change := newChange(Range{Start: start, End: end}, oldText, text, b.revisionID)
	b.moveMarksLocked(change)
	return change, nil
}

// Subscribe registers a listener for edits. The returned function removes it.
func (b *Buffer) Subscribe(l Listener) func() {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, listener: l})

	return func() {
		b.subMu.Lock()
		defer b.subMu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Buffer) notify(change Change) {
	b.subMu.Lock()
	subs := b.subs
	b.subMu.Unlock()

	for _, s := range subs {
		s.listener.BufferChanged(change)
	}
}

// Buffer State

// Revision returns the current revision ID.
func (b *Buffer) Revision() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

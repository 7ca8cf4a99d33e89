package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if b.Len() != 0 {
		t.Errorf("expected length 0, got %d", b.Len())
	}
	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
}

func TestNewBufferFromStringMultiline(t *testing.T) {
	b := NewBufferFromString("line1\nline2\nline3")

	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", b.LineCount())
	}
	for i, want := range []string{"line1", "line2", "line3"} {
		if got := b.LineText(uint32(i)); got != want {
			t.Errorf("line %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestBufferInsert(t *testing.T) {
	b := NewBufferFromString("Hello World")

	end, err := b.Insert(5, ",")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if end != 6 {
		t.Errorf("expected end position 6, got %d", end)
	}
	if b.Text() != "Hello, World" {
		t.Errorf("expected 'Hello, World', got %q", b.Text())
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := NewBufferFromString("Hello")

	if _, err := b.Insert(10, "X"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	if _, err := b.Insert(-1, "X"); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestBufferDelete(t *testing.T) {
	b := NewBufferFromString("Hello, World")

	if err := b.Delete(5, 7); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if b.Text() != "HelloWorld" {
		t.Errorf("expected 'HelloWorld', got %q", b.Text())
	}
	if err := b.Delete(5, 3); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
}

func TestBufferReplace(t *testing.T) {
	b := NewBufferFromString("Hello World")

	end, err := b.Replace(6, 11, "Go")
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if end != 8 {
		t.Errorf("expected end 8, got %d", end)
	}
	if b.Text() != "Hello Go" {
		t.Errorf("expected 'Hello Go', got %q", b.Text())
	}
}

func TestBufferManyEditsAcrossGap(t *testing.T) {
	var want strings.Builder
	b := NewBuffer()

	// Alternate between front and back so the gap moves every time.
	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			b.Insert(b.Len(), "ab")
			want.WriteString("ab")
		} else {
			b.Insert(0, "c")
			s := want.String()
			want.Reset()
			want.WriteString("c" + s)
		}
	}
	if b.Text() != want.String() {
		t.Fatal("buffer content diverged from expected text")
	}
	if got := b.TextRange(999, 1003); got != want.String()[999:1003] {
		t.Errorf("TextRange across gap: expected %q, got %q", want.String()[999:1003], got)
	}
}

func TestBufferApplyEdit(t *testing.T) {
	b := NewBufferFromString("Hello World")

	change, err := b.ApplyEdit(NewEdit(NewRange(6, 11), "There"))
	if err != nil {
		t.Fatalf("apply edit failed: %v", err)
	}
	if change.OldText != "World" {
		t.Errorf("expected old text 'World', got %q", change.OldText)
	}
	if change.Type != ChangeReplace {
		t.Errorf("expected replace, got %v", change.Type)
	}
	if change.NewRange != (Range{Start: 6, End: 11}) {
		t.Errorf("unexpected new range %v", change.NewRange)
	}
}

func TestBufferLineStartEnd(t *testing.T) {
	b := NewBufferFromString("abc\ndefgh\n\nij")

	tests := []struct {
		line       uint32
		start, end ByteOffset
	}{
		{0, 0, 3},
		{1, 4, 9},
		{2, 10, 10},
		{3, 11, 13},
	}
	for _, tt := range tests {
		if got := b.LineStartOffset(tt.line); got != tt.start {
			t.Errorf("LineStartOffset(%d) = %d, want %d", tt.line, got, tt.start)
		}
		if got := b.LineEndOffset(tt.line); got != tt.end {
			t.Errorf("LineEndOffset(%d) = %d, want %d", tt.line, got, tt.end)
		}
	}

	if got := b.LineStartAt(6); got != 4 {
		t.Errorf("LineStartAt(6) = %d, want 4", got)
	}
	if got := b.LineEndAt(6); got != 9 {
		t.Errorf("LineEndAt(6) = %d, want 9", got)
	}
	if got := b.LineEndAt(13); got != 13 {
		t.Errorf("LineEndAt(13) = %d, want 13", got)
	}
}

func TestBufferOffsetPointConversion(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	tests := []struct {
		offset ByteOffset
		point  Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{5, Point{1, 2}},
		{7, Point{2, 0}},
		{8, Point{2, 1}},
	}
	for _, tt := range tests {
		if got := b.OffsetToPoint(tt.offset); got != tt.point {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.point)
		}
		if got := b.PointToOffset(tt.point); got != tt.offset {
			t.Errorf("PointToOffset(%v) = %d, want %d", tt.point, got, tt.offset)
		}
	}
}

func TestBufferRunes(t *testing.T) {
	b := NewBufferFromString("aé日")

	if r, size := b.RuneAt(1); r != 'é' || size != 2 {
		t.Errorf("RuneAt(1) = %q/%d", r, size)
	}
	if r, size := b.RuneBefore(b.Len()); r != '日' || size != 3 {
		t.Errorf("RuneBefore(end) = %q/%d", r, size)
	}
	if _, size := b.RuneBefore(0); size != 0 {
		t.Errorf("RuneBefore(0) should report size 0, got %d", size)
	}
}

func TestBufferLineEndingNormalization(t *testing.T) {
	b := NewBufferFromString("line1\r\nline2\rline3")
	if b.Text() != "line1\nline2\nline3" {
		t.Errorf("line endings not normalized to LF: got %q", b.Text())
	}

	b = NewBufferFromString("line1\nline2", WithCRLF())
	b.Insert(b.Len(), "\nline3")
	if b.Text() != "line1\r\nline2\r\nline3" {
		t.Errorf("expected CRLF, got %q", b.Text())
	}

	b = NewBufferFromString("a\r\nb", WithKeptLineEndings())
	if b.Text() != "a\r\nb" {
		t.Errorf("kept line endings changed: %q", b.Text())
	}
}

func TestBufferRevision(t *testing.T) {
	b := NewBuffer()
	rev1 := b.Revision()

	b.Insert(0, "Hello")
	rev2 := b.Revision()
	if rev1 == rev2 {
		t.Error("revision should change after insert")
	}

	b.Delete(0, 5)
	if rev2 == b.Revision() {
		t.Error("revision should change after delete")
	}
}

func TestBufferSubscribe(t *testing.T) {
	b := NewBufferFromString("Hello World")

	var changes []Change
	unsubscribe := b.Subscribe(ListenerFunc(func(c Change) {
		// Listeners may read the buffer.
		_ = b.Len()
		changes = append(changes, c)
	}))

	b.Insert(5, ",")
	b.Delete(0, 1)
	b.Replace(0, 4, "J")

	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	if changes[0].Type != ChangeInsert || changes[0].Delta() != 1 {
		t.Errorf("unexpected insert change %v", changes[0])
	}
	if changes[1].Type != ChangeDelete || changes[1].OldText != "H" {
		t.Errorf("unexpected delete change %v", changes[1])
	}
	if changes[2].Type != ChangeReplace || changes[2].Delta() != -3 {
		t.Errorf("unexpected replace change %v", changes[2])
	}
	if changes[2].Revision != b.Revision() {
		t.Error("change should carry the new revision")
	}

	unsubscribe()
	b.Insert(0, "x")
	if len(changes) != 3 {
		t.Error("listener called after unsubscribe")
	}
}

func TestBufferConcurrentReadWrite(t *testing.T) {
	b := NewBufferFromString("Hello")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Insert(0, "X")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = b.Text()
			}
		}()
	}
	wg.Wait()

	if xCount := strings.Count(b.Text(), "X"); xCount != 100 {
		t.Errorf("expected 100 X's, got %d", xCount)
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text     string
		expected LineEnding
	}{
		{"no newlines", LineEndingLF},
		{"unix\nstyle\n", LineEndingLF},
		{"windows\r\nstyle\r\n", LineEndingCRLF},
		{"old mac\rstyle\r", LineEndingCR},
		{"mixed\r\nmore\nlines", LineEndingCRLF},
	}

	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.expected {
			t.Errorf("DetectLineEnding(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}

func TestRangeOperations(t *testing.T) {
	r := NewRange(10, 5)
	if r.Start != 5 || r.End != 10 {
		t.Errorf("NewRange should order offsets, got %v", r)
	}
	if !r.Touches(Range{Start: 10, End: 12}) {
		t.Error("adjacent ranges should touch")
	}
	if r.Overlaps(Range{Start: 10, End: 12}) {
		t.Error("adjacent ranges should not overlap")
	}
	if got := r.Intersect(Range{Start: 8, End: 20}); got != (Range{Start: 8, End: 10}) {
		t.Errorf("Intersect = %v", got)
	}
	if got := r.Union(Range{Start: 12, End: 20}); got != (Range{Start: 5, End: 20}) {
		t.Errorf("Union = %v", got)
	}
	if got := (Range{Start: -3, End: 50}).Clamp(20); got != (Range{Start: 0, End: 20}) {
		t.Errorf("Clamp = %v", got)
	}
}

func TestBufferApplyEdits(t *testing.T) {
	buf := NewBufferFromString("one two three")

	var seen []Change
	buf.Subscribe(ListenerFunc(func(c Change) { seen = append(seen, c) }))

	changes, err := buf.ApplyEdits([]Edit{
		NewEdit(Range{Start: 0, End: 3}, "1"),
		NewEdit(Range{Start: 8, End: 13}, "3"),
		NewEdit(Range{Start: 4, End: 7}, "2"),
	})
	if err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}
	if got := buf.Text(); got != "1 2 3" {
		t.Errorf("Text = %q, want %q", got, "1 2 3")
	}
	if len(changes) != 3 || len(seen) != 3 {
		t.Fatalf("expected 3 changes and 3 notifications, got %d and %d", len(changes), len(seen))
	}
	if changes[0].Range.Start != 8 {
		t.Errorf("first applied edit should be the last in the buffer, got %v", changes[0].Range)
	}

	_, err = buf.ApplyEdits([]Edit{
		NewEdit(Range{Start: 0, End: 3}, "x"),
		NewEdit(Range{Start: 2, End: 4}, "y"),
	})
	if !errors.Is(err, ErrEditsOverlap) {
		t.Errorf("overlapping edits: err = %v, want ErrEditsOverlap", err)
	}
	if got := buf.Text(); got != "1 2 3" {
		t.Errorf("rejected edits must not change the buffer, got %q", got)
	}
}

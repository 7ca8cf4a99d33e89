package buffer

import (
	"errors"
	"testing"
)

func TestMarkGravity(t *testing.T) {
	b := NewBufferFromString("hello world")

	left, err := b.CreateMark("", "bookmark", 5, GravityLeft)
	if err != nil {
		t.Fatal(err)
	}
	right, err := b.CreateMark("", "bookmark", 5, GravityRight)
	if err != nil {
		t.Fatal(err)
	}

	b.Insert(5, "XYZ")

	if left.Offset() != 5 {
		t.Errorf("left gravity mark moved to %d", left.Offset())
	}
	if right.Offset() != 8 {
		t.Errorf("right gravity mark expected at 8, got %d", right.Offset())
	}
}

func TestMarkFollowsEdits(t *testing.T) {
	b := NewBufferFromString("0123456789")

	before, _ := b.CreateMark("before", "", 2, GravityLeft)
	inside, _ := b.CreateMark("inside", "", 5, GravityLeft)
	after, _ := b.CreateMark("after", "", 8, GravityLeft)

	// Delete [4, 7): the inside mark collapses to 4, after shifts by -3.
	b.Delete(4, 7)

	if before.Offset() != 2 {
		t.Errorf("before: expected 2, got %d", before.Offset())
	}
	if inside.Offset() != 4 {
		t.Errorf("inside: expected 4, got %d", inside.Offset())
	}
	if after.Offset() != 5 {
		t.Errorf("after: expected 5, got %d", after.Offset())
	}

	b.Replace(0, 1, "abc")
	if after.Offset() != 7 {
		t.Errorf("after replace: expected 7, got %d", after.Offset())
	}
}

func TestMarkNamesAndCategories(t *testing.T) {
	b := NewBufferFromString("one two three four")

	if _, err := b.CreateMark("m", "error", 4, GravityLeft); err != nil {
		t.Fatal(err)
	}
	if _, err := b.CreateMark("m", "error", 8, GravityLeft); !errors.Is(err, ErrMarkExists) {
		t.Errorf("expected ErrMarkExists, got %v", err)
	}
	if _, err := b.CreateMark("", "error", 99, GravityLeft); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
	b.CreateMark("", "warning", 8, GravityLeft)
	b.CreateMark("", "error", 14, GravityLeft)

	if got := len(b.MarksInCategory("error")); got != 2 {
		t.Errorf("expected 2 error marks, got %d", got)
	}
	if got := len(b.MarksInCategory("")); got != 3 {
		t.Errorf("expected 3 marks, got %d", got)
	}

	next := b.NextMark(4, "error")
	if next == nil || next.Offset() != 14 {
		t.Errorf("NextMark(4, error) = %v", next)
	}
	prev := b.PrevMark(14, "")
	if prev == nil || prev.Offset() != 8 {
		t.Errorf("PrevMark(14) = %v", prev)
	}
	if b.NextMark(14, "error") != nil {
		t.Error("no error mark expected after 14")
	}

	m := b.MarkByName("m")
	b.DeleteMark(m)
	if !m.Deleted() {
		t.Error("mark should be deleted")
	}
	if b.MarkByName("m") != nil {
		t.Error("deleted mark should not be found by name")
	}
	b.DeleteMark(m)
}

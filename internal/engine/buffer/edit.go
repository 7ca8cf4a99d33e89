package buffer

import "fmt"

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// NewEdit creates a new Edit.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%d, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range.String())
	}
	return fmt.Sprintf("Replace%s with %q", e.Range.String(), e.NewText)
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// ChangeType categorizes the type of change made to the buffer.
type ChangeType uint8

const (
	ChangeInsert  ChangeType = iota // Text was inserted
	ChangeDelete                    // Text was deleted
	ChangeReplace                   // Text was replaced
)

// String returns a string representation of the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change describes one applied edit. It is what listeners receive.
type Change struct {
	Type     ChangeType // Type of change
	Range    Range      // Affected range in the text before the change
	NewRange Range      // Affected range in the text after the change
	OldText  string     // Text that was removed (for delete/replace)
	NewText  string     // Text that was added (for insert/replace)
	Revision RevisionID // Buffer revision after the change
}

// Delta returns the change in buffer length.
func (c Change) Delta() ByteOffset {
	return c.NewRange.Len() - c.Range.Len()
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	return fmt.Sprintf("%s%s->%s", c.Type, c.Range, c.NewRange)
}

func newChange(r Range, oldText, newText string, rev RevisionID) Change {
	ct := ChangeReplace
	switch {
	case oldText == "":
		ct = ChangeInsert
	case newText == "":
		ct = ChangeDelete
	}
	return Change{
		Type:     ct,
		Range:    r,
		NewRange: Range{Start: r.Start, End: r.Start + ByteOffset(len(newText))},
		OldText:  oldText,
		NewText:  newText,
		Revision: rev,
	}
}

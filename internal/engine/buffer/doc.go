// Package buffer provides the mutable text buffer that search contexts run
// against. It stores UTF-8 text in a gap buffer and reports every edit to
// registered listeners.
//
// The buffer package provides:
//
//   - Thread-safe read/write access via sync.RWMutex
//   - Byte offset positions with line/column conversion
//   - Single atomic edits (Insert, Delete, Replace) with change notification
//   - Marks that keep their place while the surrounding text is edited
//   - Line ending normalization
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//
//	unsubscribe := buf.Subscribe(buffer.ListenerFunc(func(c buffer.Change) {
//	    fmt.Println("changed", c.Range, "delta", c.Delta())
//	}))
//	defer unsubscribe()
//
//	buf.Insert(7, "Beautiful ") // "Hello, Beautiful World!"
//
// Positions:
//
// ByteOffset is the position type. Offsets of text that is later edited are
// not adjusted automatically; hold a Mark when a position has to survive
// edits. Marks follow the usual gravity rules: text inserted exactly at a
// left-gravity mark ends up after it, text inserted at a right-gravity mark
// ends up before it. A mark inside deleted text collapses to the start of
// the deletion.
//
// Notifications:
//
// Listeners run synchronously on the goroutine that made the edit, after the
// buffer lock has been released, so a listener may read the buffer. A
// listener must not edit the buffer it is observing.
package buffer

// Package history provides undo and redo for a buffer.
//
// A History observes its buffer and records every change notification as
// one undo entry, so edits made through buffer.Batch undo together.
// Consecutive small insertions typed within the merge window coalesce into
// a single entry.
//
//	h := history.New(buf)
//	defer h.Close()
//
//	_ = buf.Insert(p, "x")
//	at, _ := h.Undo() // at is where the cursor belongs
//	_, _ = h.Redo()
//
// Edits can also be grouped explicitly:
//
//	h.Transaction(func() error {
//	    // ... multiple edits ...
//	    return nil
//	})
//
// Undo and redo are applied as ordinary buffer edits, so every observer of
// the buffer sees them.
package history

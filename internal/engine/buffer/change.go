package buffer

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Change describes a single replacement applied to the buffer.
//
// From and To delimit the replaced region in the coordinates of the buffer
// before the change. Text holds the inserted content split on newlines, so it
// always has at least one element: inserting "a\nb" yields ["a", "b"] and a
// pure deletion yields [""]. Removed holds the deleted content in the same form.
type Change struct {
	From    Point
	To      Point
	Text    []string
	Removed []string

	// TailLen is the number of bytes that followed To on its line before
	// the change. Zero means the change reached the end of that line.
	TailLen int
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	text := strings.Join(c.Text, "\\n")
	if len(text) > 20 {
		text = text[:17] + "..."
	}
	return fmt.Sprintf("Replace %v-%v with %q", c.From, c.To, text)
}

// InsertedLineCount returns the net number of lines the change added.
// Negative values mean lines were removed.
func (c Change) InsertedLineCount() int {
	return len(c.Text) - 1 - (c.To.Line - c.From.Line)
}

// Span returns the pre-edit line span touched by the change.
func (c Change) Span() LineSpan {
	return LineSpan{Start: c.From.Line, End: c.To.Line}
}

// IsInsert returns true if the change removed nothing.
func (c Change) IsInsert() bool {
	return c.From == c.To
}

// IsDelete returns true if the change inserted nothing.
func (c Change) IsDelete() bool {
	return len(c.Text) == 1 && c.Text[0] == ""
}

// ChangeList is the ordered set of changes delivered with one notification.
// Each change is expressed in the coordinates produced by its predecessors.
type ChangeList []Change

// TotalInsertedLines returns the net line delta of the whole list.
func (cl ChangeList) TotalInsertedLines() int {
	n := 0
	for _, c := range cl {
		n += c.InsertedLineCount()
	}
	return n
}

// Observer receives change notifications from a Buffer.
type Observer func(b *Buffer, changes ChangeList)

// Subscription is a registered Observer. Cancel detaches it.
type Subscription struct {
	id       uint64
	buf      *Buffer
	observer Observer
	canceled atomic.Bool
}

// ID returns the subscription identifier, unique per buffer.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Cancel stops delivery to the observer. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.canceled.Swap(true) {
		return
	}
	s.buf.unsubscribe(s.id)
}

// Active returns true until Cancel is called.
func (s *Subscription) Active() bool {
	return !s.canceled.Load()
}

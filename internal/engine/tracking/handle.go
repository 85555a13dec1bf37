package tracking

import "github.com/jpkraemer/markdown-brackets/internal/engine/buffer"

// keepsLast reports whether the old line at c.To survives the change instead
// of the old line at c.From. This happens when the change starts at column 0
// and its inserted text ends with a newline, so the content of c.To moves
// onto the line after the inserted block.
func keepsLast(c buffer.Change) bool {
	return c.From.Column == 0 && c.Text[len(c.Text)-1] == "" && (c.From != c.To || len(c.Text) > 1)
}

// lastNewLine returns the index, after the change, of the line holding the
// end of the inserted text.
func lastNewLine(c buffer.Change) int {
	return c.From.Line + len(c.Text) - 1
}

// MapLine returns where line moves to after c is applied. Lines removed by
// the change map onto the line that absorbed them.
func MapLine(c buffer.Change, line int) int {
	switch {
	case line < c.From.Line:
		return line
	case line > c.To.Line:
		return line + c.InsertedLineCount()
	case keepsLast(c):
		return lastNewLine(c)
	default:
		return c.From.Line
	}
}

// Survives reports whether the identity of line outlives c.
func Survives(c buffer.Change, line int) bool {
	if line < c.From.Line || line > c.To.Line {
		return true
	}
	if keepsLast(c) {
		return line == c.To.Line
	}
	return line == c.From.Line
}

// MapSpan maps both ends of span through every change in order.
func MapSpan(changes buffer.ChangeList, span buffer.LineSpan) buffer.LineSpan {
	for _, c := range changes {
		span.Start = MapLine(c, span.Start)
		span.End = MapLine(c, span.End)
	}
	if span.End < span.Start {
		span.End = span.Start
	}
	return span
}

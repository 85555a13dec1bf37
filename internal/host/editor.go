package host

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/engine/tracking"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/layout"
)

// InlineEditor is an editable child view over a line span of the surface's
// buffer. The span follows edits like a tracking.Range and grows as lines
// are typed inside it.
type InlineEditor struct {
	surface *Surface
	rng     *tracking.Range
	sub     *buffer.Subscription
	node    *layout.Node

	cursor buffer.Point
	height int

	cursorActivity listenerSet
	resize         listenerSet

	closed bool
}

// NewInlineEditor creates an editor over lines [start, end].
func (s *Surface) NewInlineEditor(start, end int) (*InlineEditor, error) {
	if s.closed {
		return nil, ErrSurfaceClosed
	}
	rng, err := tracking.NewRange(s.buf, start, end)
	if err != nil {
		return nil, fmt.Errorf("inline editor: %w", err)
	}
	e := &InlineEditor{
		surface: s,
		rng:     rng,
		node:    layout.NewNode("inline-editor"),
		cursor:  buffer.Point{Line: start},
	}
	e.node.SetRows(e.rows)
	e.height = e.ContentHeight()
	e.sub = s.buf.Subscribe(e.onChange)
	return e, nil
}

// Node returns the editor's layout node.
func (e *InlineEditor) Node() *layout.Node { return e.node }

// Surface returns the host surface.
func (e *InlineEditor) Surface() *Surface { return e.surface }

// Span returns the edited line span.
func (e *InlineEditor) Span() buffer.LineSpan { return e.rng.Span() }

// FirstVisibleLine returns the first buffer line shown by the editor.
func (e *InlineEditor) FirstVisibleLine() int { return e.rng.StartLine() }

// LastVisibleLine returns the last buffer line shown by the editor.
func (e *InlineEditor) LastVisibleLine() int { return e.rng.EndLine() }

// LineText returns the text of a buffer line.
func (e *InlineEditor) LineText(line int) string { return e.surface.buf.LineText(line) }

// Collapsed reports whether an edit removed the editor's whole span.
func (e *InlineEditor) Collapsed() bool { return e.rng.Collapsed() }

// Closed reports whether Close has been called.
func (e *InlineEditor) Closed() bool { return e.closed }

// ContentHeight returns the number of rows the editor needs.
func (e *InlineEditor) ContentHeight() int {
	if e.closed || e.rng.Collapsed() {
		return 0
	}
	return e.rng.Span().Len()
}

func (e *InlineEditor) rows(int) []string {
	if e.closed || e.rng.Collapsed() {
		return nil
	}
	span := e.rng.Span()
	out := make([]string, 0, span.Len())
	for l := span.Start; l <= span.End; l++ {
		out = append(out, e.surface.tabs.ExpandTabs(e.surface.buf.LineText(l)))
	}
	return out
}

// Focus gives the editor keyboard focus.
func (e *InlineEditor) Focus() {
	if !e.closed {
		e.surface.focus = e
	}
}

// HasFocus reports whether the editor holds keyboard focus.
func (e *InlineEditor) HasFocus() bool { return e.surface.focus == e }

// Cursor returns the cursor position in buffer coordinates.
func (e *InlineEditor) Cursor() buffer.Point { return e.cursor }

// SetCursor moves the cursor, clamped to the editor's span.
func (e *InlineEditor) SetCursor(line, col int) {
	if e.closed {
		return
	}
	e.cursor = e.clamp(buffer.Point{Line: line, Column: col})
	e.cursorActivity.fire()
}

func (e *InlineEditor) clamp(p buffer.Point) buffer.Point {
	span := e.rng.Span()
	p.Line = min(max(p.Line, span.Start), span.End)
	text := e.surface.buf.LineText(p.Line)
	p.Column = min(max(p.Column, 0), len(text))
	for p.Column > 0 && p.Column < len(text) && !utf8.RuneStart(text[p.Column]) {
		p.Column--
	}
	return p
}

// MoveCursor moves the cursor by lines and runes.
func (e *InlineEditor) MoveCursor(dLine, dCol int) {
	p := e.cursor
	p.Line += dLine
	if dLine != 0 {
		p = e.clamp(p)
	}
	text := e.surface.buf.LineText(p.Line)
	for ; dCol > 0; dCol-- {
		if p.Column >= len(text) {
			if p.Line >= e.rng.EndLine() {
				break
			}
			p.Line++
			p.Column = 0
			text = e.surface.buf.LineText(p.Line)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[p.Column:])
		p.Column += size
	}
	for ; dCol < 0; dCol++ {
		if p.Column == 0 {
			if p.Line <= e.rng.StartLine() {
				break
			}
			p.Line--
			text = e.surface.buf.LineText(p.Line)
			p.Column = len(text)
			continue
		}
		_, size := utf8.DecodeLastRuneInString(text[:p.Column])
		p.Column -= size
	}
	e.SetCursor(p.Line, p.Column)
}

// Type inserts text at the cursor and moves the cursor after it.
func (e *InlineEditor) Type(text string) error {
	if e.closed {
		return ErrEditorClosed
	}
	at := e.cursor
	if err := e.surface.buf.Insert(at, text); err != nil {
		return fmt.Errorf("inline editor type: %w", err)
	}
	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		e.SetCursor(at.Line, at.Column+len(text))
	} else {
		e.SetCursor(at.Line+len(parts)-1, len(parts[len(parts)-1]))
	}
	return nil
}

// Newline splits the line at the cursor.
func (e *InlineEditor) Newline() error { return e.Type("\n") }

// Backspace deletes the rune before the cursor, joining lines at column 0.
// It never deletes past the first line of the span.
func (e *InlineEditor) Backspace() error {
	if e.closed {
		return ErrEditorClosed
	}
	at := e.cursor
	var from buffer.Point
	switch {
	case at.Column > 0:
		text := e.surface.buf.LineText(at.Line)
		_, size := utf8.DecodeLastRuneInString(text[:at.Column])
		from = buffer.Point{Line: at.Line, Column: at.Column - size}
	case at.Line > e.rng.StartLine():
		from = buffer.Point{Line: at.Line - 1, Column: len(e.surface.buf.LineText(at.Line - 1))}
	default:
		return nil
	}
	if err := e.surface.buf.Delete(from, at); err != nil {
		return fmt.Errorf("inline editor backspace: %w", err)
	}
	e.SetCursor(from.Line, from.Column)
	return nil
}

// Bounds returns the editor's screen rectangle from the last layout pass.
func (e *InlineEditor) Bounds() layout.Rect { return e.node.Bounds() }

// LineSpaceLeft returns the screen column where text column 0 is drawn.
func (e *InlineEditor) LineSpaceLeft() int {
	x, _ := e.surface.ScrollPos()
	return e.node.Bounds().Left - x
}

// CursorCoords returns the cursor cell in screen coordinates.
func (e *InlineEditor) CursorCoords() layout.Rect {
	b := e.node.Bounds()
	y := b.Top + e.cursor.Line - e.rng.StartLine()
	x := e.LineSpaceLeft() + e.surface.tabs.OffsetToColumn(e.surface.buf.LineText(e.cursor.Line), e.cursor.Column)
	return layout.Rect{Left: x, Top: y, Right: x + 1, Bottom: y + 1}
}

// PosAt converts a screen position to the nearest buffer point inside the
// editor.
func (e *InlineEditor) PosAt(x, y int) buffer.Point {
	line := e.rng.StartLine() + y - e.node.Bounds().Top
	p := e.clamp(buffer.Point{Line: line})
	p.Column = e.surface.tabs.ColumnToOffset(e.surface.buf.LineText(p.Line), x-e.LineSpaceLeft())
	return e.clamp(p)
}

// OnCursorActivity registers fn to run after the cursor moves. The
// returned function removes it.
func (e *InlineEditor) OnCursorActivity(fn func()) func() { return e.cursorActivity.add(fn) }

// OnResize registers fn to run when ContentHeight changes.
func (e *InlineEditor) OnResize(fn func()) func() { return e.resize.add(fn) }

// ListenerCount returns the number of registered cursor and resize listeners.
func (e *InlineEditor) ListenerCount() int {
	return e.cursorActivity.len() + e.resize.len()
}

// Close stops following the buffer and drops all listeners.
func (e *InlineEditor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.sub.Cancel()
	e.rng.Dispose()
	e.cursorActivity.clear()
	e.resize.clear()
	if e.surface.focus == e {
		e.surface.focus = nil
	}
}

func (e *InlineEditor) onChange(_ *buffer.Buffer, changes buffer.ChangeList) {
	if e.closed || e.rng.Collapsed() {
		return
	}
	for _, c := range changes {
		e.cursor.Line = tracking.MapLine(c, e.cursor.Line)
	}
	e.cursor = e.clamp(e.cursor)

	if h := e.ContentHeight(); h != e.height {
		e.height = h
		e.resize.fire()
	}
}

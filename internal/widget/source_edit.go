package widget

import (
	"fmt"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/layout"
)

// editorPadding is the number of blank rows drawn above and below the
// editable lines.
const editorPadding = 1

// SourceEdit is an editable view over the raw lines of a block.
type SourceEdit struct {
	id     string
	logger Logger
	span   buffer.LineSpan

	surface Surface
	editor  *host.InlineEditor
	content *layout.Node
	holder  *layout.Node
	size    sizer

	cancels []func()
	onClose []func()
	loaded  bool
	closed  bool
}

var _ Widget = (*SourceEdit)(nil)

// NewSourceEdit creates an editor widget for lines [start, end].
func NewSourceEdit(start, end int, opts ...Option) *SourceEdit {
	o := newOptions(opts)
	return &SourceEdit{
		id:     o.id,
		logger: o.logger,
		span:   buffer.LineSpan{Start: start, End: end},
	}
}

// ID returns the widget ID.
func (e *SourceEdit) ID() string { return e.id }

// Content returns the widget's root node.
func (e *SourceEdit) Content() *layout.Node { return e.content }

// Editor returns the editable child view.
func (e *SourceEdit) Editor() *host.InlineEditor { return e.editor }

// Span returns the lines the editor was opened on.
func (e *SourceEdit) Span() buffer.LineSpan { return e.span }

// Closed reports whether the widget has closed.
func (e *SourceEdit) Closed() bool { return e.closed }

// OnClose registers fn to run once the widget has closed.
func (e *SourceEdit) OnClose(fn func()) {
	e.onClose = append(e.onClose, fn)
}

// Load creates the editable view, focuses it and keeps the cursor visible
// in the surface while it moves.
func (e *SourceEdit) Load(s Surface) error {
	switch {
	case e.closed:
		return ErrClosed
	case e.loaded:
		return ErrAlreadyLoaded
	}
	ed, err := s.NewInlineEditor(e.span.Start, e.span.End)
	if err != nil {
		return fmt.Errorf("load source editor %s: %w", e.id, err)
	}
	e.surface = s
	e.editor = ed
	e.loaded = true
	e.size = sizer{surface: s, widget: e, logger: e.logger}

	e.content = layout.NewNode("inline-source-edit")
	e.holder = layout.NewNode("inline-editor-holder")
	e.holder.Append(padding())
	e.holder.Append(ed.Node())
	e.holder.Append(padding())
	e.content.Append(e.holder)

	ed.Focus()
	e.cancels = append(e.cancels,
		ed.OnCursorActivity(e.ensureCursorVisible),
		ed.OnResize(func() { e.SizeToContents(true) }),
		e.content.OnClick(e.onClick),
	)
	e.size.later(e.height, false)
	return nil
}

func padding() *layout.Node {
	n := layout.NewNode("inline-editor-padding")
	n.SetRows(func(int) []string { return make([]string, editorPadding) })
	return n
}

func (e *SourceEdit) height() (int, bool) {
	if e.closed || e.editor == nil {
		return 0, false
	}
	return e.editor.ContentHeight() + 2*editorPadding, true
}

// SizeToContents reports the editor's height to the surface.
func (e *SourceEdit) SizeToContents(ensureVisible bool) {
	if h, ok := e.height(); ok {
		e.size.set(h, ensureVisible)
	}
}

// ensureCursorVisible scrolls the surface, not just the child view, so the
// cursor stays on screen.
func (e *SourceEdit) ensureCursorVisible() {
	if e.closed || !e.editor.HasFocus() {
		return
	}
	s := e.surface
	s.Refresh()
	if !e.editor.Node().Attached() {
		s.RevealInlineWidget(e)
		s.Refresh()
		if !e.editor.Node().Attached() {
			return
		}
	}

	cursor := e.editor.CursorCoords()
	left := e.editor.LineSpaceLeft()
	_, scrollY := s.ScrollPos()
	scrollerTop := s.ScrollerTop() - scrollY
	s.ScrollIntoView(
		cursor.Left-left, cursor.Top-scrollerTop,
		cursor.Right-left, cursor.Bottom-scrollerTop,
	)
}

// onClick keeps focus in the editor. Clicks above the editable lines move
// the cursor to the start of the block, clicks below to the end of its
// last line.
func (e *SourceEdit) onClick(ev layout.ClickEvent) {
	if e.closed {
		return
	}
	ed := e.editor
	ed.Focus()
	if ed.Node().Contains(ev.Target) {
		p := ed.PosAt(ev.X, ev.Y)
		ed.SetCursor(p.Line, p.Column)
		return
	}
	b := ed.Bounds()
	switch {
	case ev.Y < b.Top:
		ed.SetCursor(ed.FirstVisibleLine(), 0)
	case ev.Y >= b.Bottom:
		last := ed.LastVisibleLine()
		ed.SetCursor(last, len(ed.LineText(last)))
	}
}

// OnClosed tears down the editor and its listeners.
func (e *SourceEdit) OnClosed() {
	if e.closed {
		return
	}
	e.closed = true
	e.size.stop()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil
	if e.editor != nil {
		e.editor.Close()
	}
	e.logger.Debug("source editor %s closed", e.id)

	fns := e.onClose
	e.onClose = nil
	for _, fn := range fns {
		fn()
	}
}

package renderer

import (
	"fmt"
	"strconv"

	"github.com/mattn/go-runewidth"

	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/backend"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/core"
	"github.com/jpkraemer/markdown-brackets/internal/syntax"
)

// Theme holds the styles used for each kind of row.
type Theme struct {
	Text    core.Style
	Comment core.Style
	Gutter  core.Style
	Widget  core.Style
	Editor  core.Style
	Status  core.Style
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	base := core.DefaultStyle()
	return Theme{
		Text:    base,
		Comment: base.WithForeground(core.ColorFromIndex(8)).With(core.AttrItalic),
		Gutter:  base.With(core.AttrDim),
		Widget:  base.WithForeground(core.ColorFromIndex(6)),
		Editor:  base.WithBackground(core.ColorFromIndex(236)),
		Status:  base.With(core.AttrReverse),
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the theme.
func WithTheme(t Theme) Option {
	return func(r *Renderer) { r.theme = t }
}

// WithoutStatusLine disables the status line.
func WithoutStatusLine() Option {
	return func(r *Renderer) { r.statusLine = false }
}

// Renderer draws one surface per frame.
type Renderer struct {
	backend    backend.Backend
	theme      Theme
	statusLine bool

	surface    *host.Surface
	classifier *syntax.Classifier
	status     string

	// comment classes cached per buffer revision
	comments    []bool
	commentsRev uint64
	classified  bool

	frames uint64
}

// New creates a renderer drawing to b.
func New(b backend.Backend, opts ...Option) *Renderer {
	r := &Renderer{backend: b, theme: DefaultTheme(), statusLine: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSurface selects the surface to draw. classifier may be nil, in which
// case comment lines are not styled.
func (r *Renderer) SetSurface(s *host.Surface, classifier *syntax.Classifier) {
	r.surface = s
	r.classifier = classifier
	r.comments = nil
	r.classified = false
}

// Surface returns the surface being drawn.
func (r *Renderer) Surface() *host.Surface { return r.surface }

// SetStatus sets the status line message.
func (r *Renderer) SetStatus(msg string) { r.status = msg }

// Status returns the status line message.
func (r *Renderer) Status() string { return r.status }

// TextRows returns the rows available to the surface.
func (r *Renderer) TextRows() int {
	_, h := r.backend.Size()
	if r.statusLine {
		h--
	}
	return max(h, 0)
}

// FrameCount returns the number of frames rendered.
func (r *Renderer) FrameCount() uint64 { return r.frames }

// Render draws a full frame.
func (r *Renderer) Render() {
	r.backend.Clear()
	r.frames++
	if r.surface == nil || r.surface.Closed() {
		r.backend.HideCursor()
		r.renderStatus()
		r.backend.Show()
		return
	}

	top := r.surface.ScrollerTop()
	for i, row := range r.surface.Rows() {
		r.renderRow(row, top+i)
	}
	r.renderCursor()
	r.renderStatus()
	r.backend.Show()
}

func (r *Renderer) renderRow(row host.Row, y int) {
	gutter := r.surface.GutterWidth()
	switch row.Kind {
	case host.LineRow:
		r.renderGutter(row.Line, y, gutter)
		style := r.theme.Text
		if r.isComment(row.Line) {
			style = r.theme.Comment
		}
		r.drawText(gutter, y, row.Text, style)
	case host.WidgetRow:
		style := r.theme.Widget
		if ed := r.surface.Focused(); ed != nil && ed.Node().Attached() {
			if b := ed.Bounds(); y >= b.Top && y < b.Bottom {
				style = r.theme.Editor
			}
		}
		r.drawText(gutter, y, row.Text, style)
	}
}

func (r *Renderer) renderGutter(line, y, gutter int) {
	if gutter < 2 {
		return
	}
	num := padLeft(strconv.Itoa(line+1), gutter-1)
	r.drawText(0, y, num, r.theme.Gutter)
}

// drawText draws s starting at column x, clipped to the screen width.
func (r *Renderer) drawText(x, y int, s string, style core.Style) {
	w, _ := r.backend.Size()
	for _, ch := range s {
		cw := runewidth.RuneWidth(ch)
		if cw == 0 {
			continue
		}
		if x+cw > w {
			return
		}
		r.backend.SetCell(x, y, core.Cell{Rune: ch, Width: cw, Style: style})
		x += cw
	}
}

func (r *Renderer) renderCursor() {
	ed := r.surface.Focused()
	if ed == nil || !ed.Node().Attached() {
		r.backend.HideCursor()
		return
	}
	c := ed.CursorCoords()
	w, _ := r.backend.Size()
	top := r.surface.ScrollerTop()
	_, h := r.surface.Viewport()
	if c.Left < r.surface.GutterWidth() || c.Left >= w || c.Top < top || c.Top >= top+h {
		r.backend.HideCursor()
		return
	}
	r.backend.ShowCursor(c.Left, c.Top)
}

func (r *Renderer) renderStatus() {
	if !r.statusLine {
		return
	}
	w, h := r.backend.Size()
	if h == 0 {
		return
	}
	y := h - 1
	text := r.status
	if r.surface != nil && !r.surface.Closed() {
		name := r.surface.Buffer().Name()
		if name == "" {
			name = "[scratch]"
		}
		info := fmt.Sprintf("%s  %d lines", name, r.surface.LineCount())
		if ed := r.surface.Focused(); ed != nil {
			p := ed.Cursor()
			info += fmt.Sprintf("  EDIT %d:%d", p.Line+1, p.Column+1)
		}
		if text == "" {
			text = info
		} else {
			text = info + "  " + text
		}
	}
	text = runewidth.Truncate(text, w, "…")
	for x := range w {
		r.backend.SetCell(x, y, core.Cell{Rune: ' ', Width: 1, Style: r.theme.Status})
	}
	r.drawText(0, y, text, r.theme.Status)
}

func (r *Renderer) isComment(line int) bool {
	if r.classifier == nil {
		return false
	}
	buf := r.surface.Buffer()
	if !r.classified || r.commentsRev != buf.Revision() {
		classes, err := r.classifier.Classify(buf)
		if err != nil {
			classes = nil
		}
		r.comments, r.commentsRev, r.classified = classes, buf.Revision(), true
	}
	return line >= 0 && line < len(r.comments) && r.comments[line]
}

func padLeft(s string, width int) string {
	if n := runewidth.StringWidth(s); n < width {
		return runewidth.FillLeft(s, width)
	}
	return s
}

package host

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/engine/tracking"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/layout"
)

// Default surface geometry.
const (
	DefaultWidth       = 80
	DefaultHeight      = 24
	DefaultGutterWidth = 5
	DefaultTabWidth    = 4
)

// InlineWidget is content the surface displays below an anchor line.
type InlineWidget interface {
	// ID identifies the widget in logs and debug dumps.
	ID() string
	// Content returns the widget's root node.
	Content() *layout.Node
	// OnClosed is called once when the surface removes the widget.
	OnClosed()
}

type slot struct {
	widget InlineWidget
	line   int
	height int
	seq    uint64
	node   *layout.Node
}

// Option configures a Surface.
type Option func(*Surface)

// WithViewport sets the size of the visible area in cells, gutter included.
func WithViewport(width, height int) Option {
	return func(s *Surface) {
		if width > 0 {
			s.width = width
		}
		if height > 0 {
			s.height = height
		}
	}
}

// WithGutterWidth sets the width of the line-number gutter.
func WithGutterWidth(w int) Option {
	return func(s *Surface) {
		if w >= 0 {
			s.gutter = w
		}
	}
}

// WithScrollerTop sets the screen row at which the scroll area begins.
func WithScrollerTop(top int) Option {
	return func(s *Surface) {
		if top >= 0 {
			s.scrollerTop = top
		}
	}
}

// WithTabWidth sets the tab width used for source lines.
func WithTabWidth(w int) Option {
	return func(s *Surface) { s.tabWidth = w }
}

// WithDetachedMeasurement lets Measure size nodes outside the live tree.
func WithDetachedMeasurement() Option {
	return func(s *Surface) { s.detached = true }
}

// Surface displays a buffer with hidden lines and inline widgets.
type Surface struct {
	buf *buffer.Buffer
	sub *buffer.Subscription

	hidden map[int]struct{}
	slots  []*slot
	seq    uint64

	root         *layout.Node
	measureLayer *layout.Node
	measurer     *layout.Measurer
	tabs         *layout.TabExpander

	deferred []func()

	width, height    int
	gutter           int
	scrollerTop      int
	tabWidth         int
	detached         bool
	scrollX, scrollY int

	focus  *InlineEditor
	closed bool
}

// NewSurface creates a surface over buf and starts following its edits.
// The surface subscribes before any widget does, so hidden flags and
// anchors are already remapped when widget observers run.
func NewSurface(buf *buffer.Buffer, opts ...Option) *Surface {
	s := &Surface{
		buf:      buf,
		hidden:   make(map[int]struct{}),
		width:    DefaultWidth,
		height:   DefaultHeight,
		gutter:   DefaultGutterWidth,
		tabWidth: DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(s)
	}

	var mopts []layout.MeasurerOption
	mopts = append(mopts, layout.WithTabWidth(s.tabWidth))
	if s.detached {
		mopts = append(mopts, layout.WithDetachedMeasurement())
	}
	s.measurer = layout.NewMeasurer(s.textWidth(), mopts...)
	s.tabs = layout.NewTabExpander(s.tabWidth)

	s.root = layout.NewNode("surface")
	s.root.SetLive(true)
	s.measureLayer = layout.NewNode("measure-layer")
	s.measureLayer.SetLive(true)
	s.measureLayer.SetHidden(true)

	s.sub = buf.Subscribe(s.onChange)
	return s
}

// Buffer returns the displayed buffer.
func (s *Surface) Buffer() *buffer.Buffer { return s.buf }

// LineCount returns the number of lines in the buffer.
func (s *Surface) LineCount() int { return s.buf.LineCount() }

// LineText returns the text of a buffer line.
func (s *Surface) LineText(line int) string { return s.buf.LineText(line) }

// Closed reports whether Close has been called.
func (s *Surface) Closed() bool { return s.closed }

// Close removes every inline widget and stops following the buffer.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	for _, w := range s.InlineWidgets() {
		_ = s.RemoveInlineWidget(w)
	}
	s.sub.Cancel()
	s.hidden = make(map[int]struct{})
	s.focus = nil
	s.closed = true
}

func (s *Surface) validLine(line int) bool {
	return line >= 0 && line < s.buf.LineCount()
}

// HideLine hides a source line. Out-of-range lines are ignored.
func (s *Surface) HideLine(line int) {
	if s.closed || !s.validLine(line) {
		return
	}
	s.hidden[line] = struct{}{}
}

// ShowLine makes a hidden source line visible again.
func (s *Surface) ShowLine(line int) {
	delete(s.hidden, line)
}

// IsLineHidden reports whether line is hidden.
func (s *Surface) IsLineHidden(line int) bool {
	_, ok := s.hidden[line]
	return ok
}

// HiddenLines returns the hidden lines in ascending order.
func (s *Surface) HiddenLines() []int {
	lines := make([]int, 0, len(s.hidden))
	for l := range s.hidden {
		lines = append(lines, l)
	}
	slices.Sort(lines)
	return lines
}

// AddInlineWidget anchors w below line.
func (s *Surface) AddInlineWidget(line int, w InlineWidget) error {
	if s.closed {
		return ErrSurfaceClosed
	}
	if !s.validLine(line) {
		return fmt.Errorf("add inline widget %s at %d: %w", w.ID(), line, ErrLineOutOfRange)
	}
	if s.find(w) >= 0 {
		return fmt.Errorf("add inline widget %s: %w", w.ID(), ErrWidgetExists)
	}
	s.seq++
	sl := &slot{widget: w, line: line, seq: s.seq, node: layout.NewNode("inline-widget")}
	sl.node.Append(w.Content())
	s.slots = append(s.slots, sl)
	return nil
}

// RemoveInlineWidget detaches w and calls its OnClosed.
func (s *Surface) RemoveInlineWidget(w InlineWidget) error {
	i := s.find(w)
	if i < 0 {
		return fmt.Errorf("remove inline widget %s: %w", w.ID(), ErrWidgetNotFound)
	}
	sl := s.slots[i]
	s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
	sl.node.Remove()
	w.OnClosed()
	return nil
}

// SetInlineWidgetHeight sets the number of rows reserved for w. With
// ensureVisible the surface scrolls so the widget is in view.
func (s *Surface) SetInlineWidgetHeight(w InlineWidget, height int, ensureVisible bool) error {
	i := s.find(w)
	if i < 0 {
		return fmt.Errorf("size inline widget %s: %w", w.ID(), ErrWidgetNotFound)
	}
	if height < 0 {
		height = 0
	}
	s.slots[i].height = height
	if ensureVisible {
		s.RevealInlineWidget(w)
	}
	return nil
}

// InlineWidgetLine returns the anchor line of w.
func (s *Surface) InlineWidgetLine(w InlineWidget) (int, bool) {
	if i := s.find(w); i >= 0 {
		return s.slots[i].line, true
	}
	return 0, false
}

// InlineWidgetHeight returns the rows reserved for w.
func (s *Surface) InlineWidgetHeight(w InlineWidget) (int, bool) {
	if i := s.find(w); i >= 0 {
		return s.slots[i].height, true
	}
	return 0, false
}

// InlineWidgets returns the widgets in display order.
func (s *Surface) InlineWidgets() []InlineWidget {
	ordered := s.orderedSlots()
	out := make([]InlineWidget, len(ordered))
	for i, sl := range ordered {
		out[i] = sl.widget
	}
	return out
}

// OnTree reports whether w's content is currently attached to the live tree.
func (s *Surface) OnTree(w InlineWidget) bool {
	if i := s.find(w); i >= 0 {
		return s.slots[i].node.Parent() == s.root
	}
	return false
}

func (s *Surface) find(w InlineWidget) int {
	for i, sl := range s.slots {
		if sl.widget == w {
			return i
		}
	}
	return -1
}

func (s *Surface) orderedSlots() []*slot {
	ordered := slices.Clone(s.slots)
	slices.SortStableFunc(ordered, func(a, b *slot) int {
		if a.line != b.line {
			return a.line - b.line
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return ordered
}

// onChange moves hidden flags and widget anchors with the edited lines.
func (s *Surface) onChange(_ *buffer.Buffer, changes buffer.ChangeList) {
	for _, c := range changes {
		if len(s.hidden) > 0 {
			moved := make(map[int]struct{}, len(s.hidden))
			for line := range s.hidden {
				if tracking.Survives(c, line) {
					moved[tracking.MapLine(c, line)] = struct{}{}
				}
			}
			s.hidden = moved
		}
		for _, sl := range s.slots {
			sl.line = tracking.MapLine(c, sl.line)
		}
	}

	count := s.buf.LineCount()
	for line := range s.hidden {
		if line >= count {
			delete(s.hidden, line)
		}
	}
	for _, sl := range s.slots {
		sl.line = min(sl.line, count-1)
	}
	s.clampScroll()
}

// Defer queues fn to run on the next turn.
func (s *Surface) Defer(fn func()) {
	if fn != nil {
		s.deferred = append(s.deferred, fn)
	}
}

// RunDeferred runs the work queued before the call and returns how many
// functions ran. Work deferred while running waits for the next call.
func (s *Surface) RunDeferred() int {
	queue := s.deferred
	s.deferred = nil
	for _, fn := range queue {
		fn()
	}
	return len(queue)
}

// PendingDeferred returns the number of queued functions.
func (s *Surface) PendingDeferred() int { return len(s.deferred) }

// Focused returns the inline editor holding keyboard focus, if any.
func (s *Surface) Focused() *InlineEditor { return s.focus }

// Blur returns keyboard focus to the surface.
func (s *Surface) Blur() { s.focus = nil }

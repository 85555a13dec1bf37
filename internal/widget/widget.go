package widget

import (
	"github.com/google/uuid"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/layout"
	"github.com/jpkraemer/markdown-brackets/internal/scanner"
)

// Widget is the capability shared by the inline widgets.
type Widget interface {
	host.InlineWidget

	// Load binds the widget to a surface and builds its content.
	Load(s Surface) error
	// SizeToContents reports the widget's current height to the surface.
	SizeToContents(ensureVisible bool)
}

// Surface is the part of the host surface the widgets use.
type Surface interface {
	Buffer() *buffer.Buffer

	HideLine(line int)
	ShowLine(line int)

	AddInlineWidget(line int, w host.InlineWidget) error
	RemoveInlineWidget(w host.InlineWidget) error
	SetInlineWidgetHeight(w host.InlineWidget, height int, ensureVisible bool) error
	InlineWidgetLine(w host.InlineWidget) (int, bool)
	RevealInlineWidget(w host.InlineWidget)
	NewInlineEditor(start, end int) (*host.InlineEditor, error)

	Measure(n *layout.Node) (int, bool)
	MeasureLayer() *layout.Node
	MeasuresDetached() bool
	Refresh()
	Defer(fn func())

	ScrollPos() (x, y int)
	ScrollerTop() int
	ScrollIntoView(left, top, right, bottom int)
}

// Logger receives widget diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

type options struct {
	id      string
	logger  Logger
	scanner *scanner.Scanner
}

// Option configures a widget.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithScanner sets the scanner whose delimiters are stripped before
// rendering.
func WithScanner(s *scanner.Scanner) Option {
	return func(o *options) {
		if s != nil {
			o.scanner = s
		}
	}
}

// WithID overrides the generated widget ID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

func newOptions(opts []Option) options {
	o := options{logger: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.scanner == nil {
		o.scanner = scanner.New()
	}
	return o
}

// sizer negotiates one widget's height with the surface.
type sizer struct {
	surface Surface
	widget  host.InlineWidget
	logger  Logger
	height  int
	dead    bool
}

// set reports height to the surface. Failures are logged and ignored; the
// widget may not be added yet or may already be gone.
func (z *sizer) set(height int, ensureVisible bool) {
	if z.dead || z.surface == nil {
		return
	}
	if err := z.surface.SetInlineWidgetHeight(z.widget, height, ensureVisible); err != nil {
		z.logger.Debug("size %s: %v", z.widget.ID(), err)
		return
	}
	z.height = height
}

// later resolves the height on the next turn. It does nothing if the
// widget closed in between.
func (z *sizer) later(resolve func() (int, bool), ensureVisible bool) {
	if z.dead || z.surface == nil {
		return
	}
	z.surface.Defer(func() {
		if z.dead {
			return
		}
		if h, ok := resolve(); ok {
			z.set(h, ensureVisible)
		}
	})
}

func (z *sizer) stop() { z.dead = true }

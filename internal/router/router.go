package router

import (
	"context"
	"fmt"
	"slices"

	"github.com/sanity-io/litter"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/event"
	"github.com/jpkraemer/markdown-brackets/internal/event/topic"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/markup"
	"github.com/jpkraemer/markdown-brackets/internal/scanner"
	"github.com/jpkraemer/markdown-brackets/internal/syntax"
	"github.com/jpkraemer/markdown-brackets/internal/widget"
)

// Document is an editor view over a buffer. It is the payload of the
// document.active event.
type Document struct {
	// Name is the file name, used to pick a lexer.
	Name string
	// Surface hosts the document's widgets.
	Surface *host.Surface
}

// PreviewEvent is the payload of the preview.opened and preview.closed
// events.
type PreviewEvent struct {
	ID       string
	Document string
	Span     buffer.LineSpan
}

// ChangeEvent is the payload of the document.changed event.
type ChangeEvent struct {
	Document string
	Changes  int
	Previews int
}

// Logger is the logging used by the router and its widgets.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithScanner sets the block scanner.
func WithScanner(s *scanner.Scanner) Option {
	return func(r *Router) {
		if s != nil {
			r.scanner = s
		}
	}
}

// WithBus makes the router follow document.active events and publish
// preview and change events on bus.
func WithBus(bus *event.Bus) Option {
	return func(r *Router) { r.bus = bus }
}

// Router owns the previews of the active document.
type Router struct {
	logger   Logger
	scanner  *scanner.Scanner
	renderer markup.Renderer
	bus      *event.Bus
	busSub   *event.Subscription

	doc      *Document
	previews []*widget.Preview
	editors  []*widget.SourceEdit
	sub      *buffer.Subscription
	closed   bool
}

// New creates a router rendering blocks with r.
func New(r markup.Renderer, opts ...Option) (*Router, error) {
	rt := &Router{
		logger:   nopLogger{},
		scanner:  scanner.New(),
		renderer: r,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.bus != nil {
		sub, err := event.Subscribe(rt.bus, event.TopicDocumentActive, rt.onDocumentActive)
		if err != nil {
			return nil, fmt.Errorf("router: %w", err)
		}
		rt.busSub = sub
	}
	return rt, nil
}

func (r *Router) onDocumentActive(_ context.Context, ev event.Event[Document]) error {
	return r.Activate(ev.Payload)
}

// Activate tears down the widgets of the previous document and opens a
// preview for every block of doc.
func (r *Router) Activate(doc Document) error {
	if r.closed {
		return ErrClosed
	}
	if doc.Surface == nil {
		return fmt.Errorf("activate %q: %w", doc.Name, ErrNilSurface)
	}
	r.Deactivate()
	r.doc = &doc

	s := doc.Surface
	blocks := r.scanner.Blocks(s.Buffer())
	for _, b := range blocks {
		r.open(b, anchorLine(b, blocks, s.Buffer().LineCount()))
	}
	r.sub = s.Buffer().Subscribe(r.onChange)
	r.logger.Info("activated %s with %d previews", doc.Name, len(r.previews))
	return nil
}

// anchorLine returns the line a preview for b attaches to: the line before
// the block, or the line after it when the block starts the document. When
// that line belongs to another block or does not exist, the preview
// attaches to the block's own first line.
func anchorLine(b scanner.Block, blocks []scanner.Block, lineCount int) int {
	free := func(line int) bool {
		if line < 0 || line >= lineCount {
			return false
		}
		return !slices.ContainsFunc(blocks, func(o scanner.Block) bool {
			return o.StartLine <= line && line <= o.EndLine
		})
	}
	switch {
	case b.StartLine > 0 && free(b.StartLine-1):
		return b.StartLine - 1
	case b.StartLine == 0 && free(b.EndLine+1):
		return b.EndLine + 1
	}
	return b.StartLine
}

// open loads a preview for b and attaches it below line.
func (r *Router) open(b scanner.Block, line int) {
	s := r.doc.Surface
	p := widget.NewPreview(b.StartLine, b.EndLine, r.renderer,
		widget.WithLogger(r.logger),
		widget.WithScanner(r.scanner),
	)
	if err := p.Load(s); err != nil {
		r.logger.Warn("open preview for %d-%d: %v", b.StartLine, b.EndLine, err)
		return
	}
	if err := s.AddInlineWidget(line, p); err != nil {
		r.logger.Warn("attach preview for %d-%d: %v", b.StartLine, b.EndLine, err)
		p.Close()
		return
	}

	name := r.doc.Name
	r.previews = append(r.previews, p)
	p.OnClose(func() {
		r.previews = slices.DeleteFunc(r.previews, func(x *widget.Preview) bool { return x == p })
		r.publish(event.TopicPreviewClosed, PreviewEvent{ID: p.ID(), Document: name, Span: p.Span()})
	})
	r.publish(event.TopicPreviewOpened, PreviewEvent{ID: p.ID(), Document: name, Span: p.Span()})
}

// onChange forwards one notification to every preview open when it
// arrived. Previews closed by an earlier handler in the same fan-out are
// skipped.
func (r *Router) onChange(_ *buffer.Buffer, changes buffer.ChangeList) {
	targets := slices.Clone(r.previews)
	for _, p := range targets {
		if p.Closed() {
			continue
		}
		p.OnDocumentChange(changes)
	}
	if r.doc != nil {
		r.publish(event.TopicDocumentChanged, ChangeEvent{
			Document: r.doc.Name,
			Changes:  len(changes),
			Previews: len(r.previews),
		})
	}
}

func (r *Router) publish(t topic.Topic, payload any) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(context.Background(), event.Envelope{
		Topic:    t,
		Payload:  payload,
		Metadata: event.NewEvent(t, payload, "router").Metadata,
	}); err != nil {
		r.logger.Warn("publish %s: %v", t, err)
	}
}

// Deactivate closes every widget of the active document and stops
// following its buffer.
func (r *Router) Deactivate() {
	if r.sub != nil {
		r.sub.Cancel()
		r.sub = nil
	}
	for _, e := range slices.Clone(r.editors) {
		r.closeEditor(e)
	}
	r.editors = nil
	for _, p := range slices.Clone(r.previews) {
		p.Close()
	}
	r.previews = nil
	if r.doc != nil {
		r.logger.Debug("deactivated %s", r.doc.Name)
	}
	r.doc = nil
}

// Close deactivates the router and leaves the bus.
func (r *Router) Close() {
	if r.closed {
		return
	}
	r.Deactivate()
	if r.busSub != nil {
		r.busSub.Cancel()
	}
	r.closed = true
}

// Document returns the active document.
func (r *Router) Document() (Document, bool) {
	if r.doc == nil {
		return Document{}, false
	}
	return *r.doc, true
}

// Previews returns the open previews in the order they were created.
func (r *Router) Previews() []*widget.Preview {
	return slices.Clone(r.previews)
}

// Editors returns the open editors created by ProvideEditor.
func (r *Router) Editors() []*widget.SourceEdit {
	return slices.Clone(r.editors)
}

// PreviewAt returns the preview whose block contains line.
func (r *Router) PreviewAt(line int) (*widget.Preview, bool) {
	for _, p := range r.previews {
		if p.Span().Contains(line) {
			return p, true
		}
	}
	return nil, false
}

// ProvideEditor opens a source editor over the comment lines around line
// and attaches it below line. It returns ErrUnsupportedLanguage when no
// lexer matches the document and ErrNotComment when line is not inside a
// comment.
func (r *Router) ProvideEditor(line int) (*widget.SourceEdit, error) {
	if r.doc == nil {
		return nil, ErrNoDocument
	}
	c, ok := syntax.ForFilename(r.doc.Name)
	if !ok {
		return nil, fmt.Errorf("provide editor for %q: %w", r.doc.Name, ErrUnsupportedLanguage)
	}
	s := r.doc.Surface
	classes, err := c.Classify(s.Buffer())
	if err != nil {
		return nil, fmt.Errorf("provide editor at %d: %w", line, err)
	}
	if line < 0 || line >= len(classes) || !classes[line] {
		return nil, fmt.Errorf("provide editor at %d: %w", line, ErrNotComment)
	}
	start, end := line, line
	for start > 0 && classes[start-1] {
		start--
	}
	for end < len(classes)-1 && classes[end+1] {
		end++
	}

	e := widget.NewSourceEdit(start, end, widget.WithLogger(r.logger))
	if err := e.Load(s); err != nil {
		return nil, fmt.Errorf("provide editor at %d: %w", line, err)
	}
	if err := s.AddInlineWidget(line, e); err != nil {
		e.OnClosed()
		return nil, fmt.Errorf("provide editor at %d: %w", line, err)
	}
	r.editors = append(r.editors, e)
	e.OnClose(func() {
		r.editors = slices.DeleteFunc(r.editors, func(x *widget.SourceEdit) bool { return x == e })
	})
	r.logger.Debug("editor %s over %d-%d (%s)", e.ID(), start, end, c.Language())
	return e, nil
}

func (r *Router) closeEditor(e *widget.SourceEdit) {
	if err := r.doc.Surface.RemoveInlineWidget(e); err != nil {
		e.OnClosed()
	}
}

type previewDump struct {
	ID     string
	State  string
	Span   buffer.LineSpan
	Source string
}

type routerDump struct {
	Document string
	Hidden   []int
	Previews []previewDump
	Editors  []string
}

// Dump returns a readable snapshot of the router state for debug logs.
func (r *Router) Dump() string {
	d := routerDump{}
	if r.doc != nil {
		d.Document = r.doc.Name
		d.Hidden = r.doc.Surface.HiddenLines()
	}
	for _, p := range r.previews {
		d.Previews = append(d.Previews, previewDump{
			ID:     p.ID(),
			State:  p.State().String(),
			Span:   p.Span(),
			Source: p.Source(),
		})
	}
	for _, e := range r.editors {
		d.Editors = append(d.Editors, e.ID())
	}
	return litter.Options{HidePrivateFields: true, Compact: false}.Sdump(d)
}

package widget

import (
	"fmt"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/engine/tracking"
	"github.com/jpkraemer/markdown-brackets/internal/markup"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/layout"
	"github.com/jpkraemer/markdown-brackets/internal/scanner"
	"github.com/jpkraemer/markdown-brackets/internal/visibility"
)

// State is the lifecycle state of a Preview.
type State int

const (
	// StateRendering is the state before Load completes.
	StateRendering State = iota
	// StatePreview shows the rendered block.
	StatePreview
	// StateEditing shows the rendered block with a source editor below.
	StateEditing
	// StateClosed is final.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRendering:
		return "rendering"
	case StatePreview:
		return "preview"
	case StateEditing:
		return "editing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Preview displays the rendered body of one comment block in place of its
// source lines.
type Preview struct {
	id       string
	logger   Logger
	scanner  *scanner.Scanner
	renderer markup.Renderer

	initial buffer.LineSpan
	surface Surface
	buf     *buffer.Buffer
	rng     *tracking.Range
	vis     *visibility.Controller

	content *layout.Node
	holder  *layout.Node
	mirror  *layout.Node
	size    sizer

	source  string
	html    string
	renders int

	edit        *SourceEdit
	cancelClick func()
	onClose     []func()

	state State
}

var _ Widget = (*Preview)(nil)

// NewPreview creates a preview for the block on lines [start, end].
func NewPreview(start, end int, r markup.Renderer, opts ...Option) *Preview {
	o := newOptions(opts)
	return &Preview{
		id:       o.id,
		logger:   o.logger,
		scanner:  o.scanner,
		renderer: r,
		initial:  buffer.LineSpan{Start: start, End: end},
	}
}

// ID returns the widget ID.
func (p *Preview) ID() string { return p.id }

// Content returns the widget's root node.
func (p *Preview) Content() *layout.Node { return p.content }

// State returns the lifecycle state.
func (p *Preview) State() State { return p.state }

// Closed reports whether the preview has closed.
func (p *Preview) Closed() bool { return p.state == StateClosed }

// Span returns the block's current lines.
func (p *Preview) Span() buffer.LineSpan {
	if p.rng == nil || p.rng.Disposed() {
		return p.initial
	}
	return p.rng.Span()
}

// HTML returns the last rendered fragment.
func (p *Preview) HTML() string { return p.html }

// Source returns the markup passed to the renderer by the last render.
func (p *Preview) Source() string { return p.source }

// Renders returns how many times the block has been rendered.
func (p *Preview) Renders() int { return p.renders }

// Editor returns the attached source editor, if any.
func (p *Preview) Editor() *SourceEdit { return p.edit }

// Mirror returns the measurement mirror, or nil when the host measures
// detached content directly.
func (p *Preview) Mirror() *layout.Node { return p.mirror }

// OnClose registers fn to run once the preview has closed.
func (p *Preview) OnClose(fn func()) {
	p.onClose = append(p.onClose, fn)
}

// Load binds the preview to s, hides the block's source lines and renders
// the block.
func (p *Preview) Load(s Surface) error {
	switch {
	case p.state == StateClosed:
		return ErrClosed
	case p.surface != nil:
		return ErrAlreadyLoaded
	}

	rng, err := tracking.NewRange(s.Buffer(), p.initial.Start, p.initial.End)
	if err != nil {
		return fmt.Errorf("load preview %s: %w", p.id, err)
	}
	p.surface = s
	p.buf = s.Buffer()
	p.rng = rng
	p.size = sizer{surface: s, widget: p, logger: p.logger}

	p.vis = visibility.New(s)
	p.vis.Sync(rng.Span())

	p.content = layout.NewNode("inline-markdown")
	p.holder = layout.NewNode("inline-markdown-comment-holder")
	p.content.Append(p.holder)
	if !s.MeasuresDetached() {
		p.mirror = layout.NewNode("inline-markdown-height-dummy")
		s.MeasureLayer().Append(p.mirror)
	}

	p.RenderPreview()

	p.cancelClick = p.content.OnClick(p.onClick)
	p.buf.AddRef()
	p.state = StatePreview
	p.logger.Debug("preview %s loaded at %s", p.id, rng.Span())
	return nil
}

// RenderPreview renders the block's current text and schedules a height
// update. The open delimiter and everything from the close delimiter to
// the end of its line are stripped before rendering.
func (p *Preview) RenderPreview() {
	if p.holder == nil || p.state == StateClosed || p.rng.Collapsed() {
		return
	}
	span := p.rng.Span()
	lines, err := p.buf.Lines(span.Start, span.End)
	if err != nil {
		p.logger.Debug("preview %s: read %s: %v", p.id, span, err)
		return
	}

	p.source = p.scanner.Body(lines)
	p.html = p.renderer.Render(p.source)
	p.renders++

	p.holder.Empty()
	p.holder.SetHTML(p.html)
	if p.mirror != nil {
		p.mirror.Empty()
		p.mirror.Append(p.holder.Clone())
	}

	p.size.later(p.measure, false)
}

func (p *Preview) measure() (int, bool) {
	if p.mirror != nil {
		return p.surface.Measure(p.mirror)
	}
	return p.surface.Measure(p.content)
}

// SizeToContents measures the rendered content and reports its height.
// Nothing happens when the content cannot be measured.
func (p *Preview) SizeToContents(ensureVisible bool) {
	if p.surface == nil || p.state == StateClosed {
		return
	}
	if h, ok := p.measure(); ok {
		p.size.set(h, ensureVisible)
	}
}

// OnDocumentChange updates the preview for one change notification. The
// hidden lines are synchronized first; the block is then re-rendered at
// most once if any change touches it. A block whose lines were all deleted
// closes the preview.
func (p *Preview) OnDocumentChange(changes buffer.ChangeList) {
	if p.surface == nil || p.state == StateClosed {
		return
	}
	if p.rng.Collapsed() {
		p.logger.Debug("preview %s: block deleted", p.id)
		p.vis.Forget()
		p.Close()
		return
	}

	p.vis.Track(changes)
	p.syncVisibility()

	span := p.rng.Span()
	for _, c := range changes {
		if c.From.Line <= span.End && c.To.Line >= span.Start {
			p.RenderPreview()
			return
		}
	}
}

// syncVisibility hides the block's lines, leaving the source editor's
// anchor line visible.
func (p *Preview) syncVisibility() {
	var pinned []int
	if p.edit != nil {
		if line, ok := p.surface.InlineWidgetLine(p.edit); ok {
			pinned = append(pinned, line)
		}
	}
	p.vis.Sync(p.rng.Span(), pinned...)
}

// Toggle opens a source editor below the block, or closes the open one.
func (p *Preview) Toggle() {
	if p.surface == nil || p.state == StateClosed {
		return
	}
	if p.edit != nil {
		p.closeEditor()
		p.syncVisibility()
		return
	}
	p.openEditor()
}

func (p *Preview) onClick(layout.ClickEvent) { p.Toggle() }

func (p *Preview) openEditor() {
	span := p.rng.Span()
	// The editor needs a visible line to attach to.
	p.surface.ShowLine(span.End)

	edit := NewSourceEdit(span.Start, span.End, WithLogger(p.logger))
	if err := edit.Load(p.surface); err != nil {
		p.logger.Warn("preview %s: open editor: %v", p.id, err)
		p.syncVisibility()
		return
	}
	if err := p.surface.AddInlineWidget(span.End, edit); err != nil {
		p.logger.Warn("preview %s: attach editor: %v", p.id, err)
		edit.OnClosed()
		p.syncVisibility()
		return
	}
	edit.OnClose(func() {
		if p.edit == edit {
			p.edit = nil
			if p.state == StateEditing {
				p.state = StatePreview
				p.syncVisibility()
			}
		}
	})
	p.edit = edit
	p.state = StateEditing
}

func (p *Preview) closeEditor() {
	edit := p.edit
	if edit == nil {
		return
	}
	p.edit = nil
	if err := p.surface.RemoveInlineWidget(edit); err != nil {
		edit.OnClosed()
	}
	if p.state == StateEditing {
		p.state = StatePreview
	}
}

// Close removes the preview from its surface.
func (p *Preview) Close() {
	if p.state == StateClosed {
		return
	}
	if p.surface == nil {
		p.OnClosed()
		return
	}
	if err := p.surface.RemoveInlineWidget(p); err != nil {
		p.OnClosed()
	}
}

// OnClosed releases everything the preview holds. The surface calls it
// when the widget is removed.
func (p *Preview) OnClosed() {
	if p.state == StateClosed {
		return
	}
	loaded := p.surface != nil
	p.state = StateClosed
	if !loaded {
		p.fireClose()
		return
	}

	p.size.stop()
	p.closeEditor()
	p.vis.Release()
	p.initial = p.rng.Span()
	p.rng.Dispose()
	if p.cancelClick != nil {
		p.cancelClick()
		p.cancelClick = nil
	}
	if p.mirror != nil {
		p.mirror.Remove()
	}
	p.buf.ReleaseRef()
	p.logger.Debug("preview %s closed", p.id)
	p.fireClose()
}

func (p *Preview) fireClose() {
	fns := p.onClose
	p.onClose = nil
	for _, fn := range fns {
		fn()
	}
}

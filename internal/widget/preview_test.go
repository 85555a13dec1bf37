package widget

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/markup"
	"github.com/jpkraemer/markdown-brackets/internal/scanner"
)

// recorder wraps the markdown renderer and remembers its inputs.
type recorder struct {
	md    *markup.Markdown
	calls []string
}

func newRecorder() *recorder { return &recorder{md: markup.NewMarkdown()} }

func (r *recorder) Render(raw string) string {
	r.calls = append(r.calls, raw)
	return r.md.Render(raw)
}

type fixture struct {
	t   *testing.T
	buf *buffer.Buffer
	s   *host.Surface
	r   *recorder
}

func newFixture(t *testing.T, lines []string, opts ...host.Option) *fixture {
	t.Helper()
	buf := buffer.NewBufferFromLines(lines)
	opts = append([]host.Option{host.WithViewport(40, 20), host.WithGutterWidth(5)}, opts...)
	return &fixture{t: t, buf: buf, s: host.NewSurface(buf, opts...), r: newRecorder()}
}

// preview loads a preview, attaches it the way the router does and routes
// document changes to it.
func (f *fixture) preview(start, end int) *Preview {
	f.t.Helper()
	p := NewPreview(start, end, f.r)
	if err := p.Load(f.s); err != nil {
		f.t.Fatal(err)
	}
	line := start - 1
	if start == 0 {
		line = end + 1
	}
	if err := f.s.AddInlineWidget(line, p); err != nil {
		f.t.Fatal(err)
	}
	sub := f.buf.Subscribe(func(_ *buffer.Buffer, changes buffer.ChangeList) {
		p.OnDocumentChange(changes)
	})
	p.OnClose(sub.Cancel)
	return p
}

func spanLines(s buffer.LineSpan) []int {
	var out []int
	for l := s.Start; l <= s.End; l++ {
		out = append(out, l)
	}
	return out
}

func TestPreviewRendersStrippedBody(t *testing.T) {
	f := newFixture(t, []string{"/**", "# Title", "*/", "code"})
	p := f.preview(0, 2)

	if diff := cmp.Diff([]string{"\n# Title\n\n"}, f.r.calls); diff != "" {
		t.Errorf("render input (-want +got):\n%s", diff)
	}
	if p.HTML() != "<h1>Title</h1>\n" {
		t.Errorf("HTML = %q", p.HTML())
	}
	if diff := cmp.Diff([]int{0, 1, 2}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden lines (-want +got):\n%s", diff)
	}
	if line, _ := f.s.InlineWidgetLine(p); line != 3 {
		t.Errorf("anchor = %d, want 3", line)
	}
	if p.State() != StatePreview {
		t.Errorf("state = %v", p.State())
	}
}

func TestRenderPreviewIsIdempotent(t *testing.T) {
	f := newFixture(t, []string{"x", "/**", "- One", "- Two", "*/"})
	p := f.preview(1, 4)
	first := p.HTML()
	p.RenderPreview()
	if p.HTML() != first {
		t.Errorf("second render %q != first %q", p.HTML(), first)
	}
	if f.r.calls[0] != f.r.calls[1] {
		t.Errorf("render inputs differ: %q vs %q", f.r.calls[0], f.r.calls[1])
	}
}

func TestPreviewSizesFromMirrorOnNextTurn(t *testing.T) {
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = "code"
	}
	lines[50], lines[51], lines[52], lines[53] = "/**", "# A", "b", "*/"
	f := newFixture(t, lines, host.WithViewport(40, 10))
	p := f.preview(50, 53)

	if h, _ := f.s.InlineWidgetHeight(p); h != 0 {
		t.Errorf("height before deferred pass = %d", h)
	}
	f.s.Refresh()
	if f.s.OnTree(p) {
		t.Fatal("off-screen preview is on tree")
	}
	if _, ok := f.s.Measure(p.Content()); ok {
		t.Fatal("off-tree content measurable")
	}

	f.s.RunDeferred()
	// "A", blank, "b"
	if h, _ := f.s.InlineWidgetHeight(p); h != 3 {
		t.Errorf("height = %d, want 3", h)
	}
	if p.Mirror() == nil || !p.Mirror().Attached() {
		t.Error("mirror not attached to the measure layer")
	}
}

func TestPreviewWithoutMirror(t *testing.T) {
	f := newFixture(t, []string{"x", "/**", "# A", "*/"}, host.WithDetachedMeasurement())
	p := f.preview(1, 3)
	if p.Mirror() != nil {
		t.Error("mirror created although the host measures detached nodes")
	}
	if n := len(f.s.MeasureLayer().Children()); n != 0 {
		t.Errorf("measure layer has %d children", n)
	}
	f.s.RunDeferred()
	if h, _ := f.s.InlineWidgetHeight(p); h != 1 {
		t.Errorf("height = %d, want 1", h)
	}
}

func TestDeferredSizeAfterCloseIsNoop(t *testing.T) {
	f := newFixture(t, []string{"x", "/**", "# A", "*/"})
	p := f.preview(1, 3)
	p.Close()
	if f.s.PendingDeferred() == 0 {
		t.Fatal("no deferred pass queued")
	}
	f.s.RunDeferred()
	if _, ok := f.s.InlineWidgetHeight(p); ok {
		t.Error("closed preview still on surface")
	}
	p.SizeToContents(true)
}

func TestPreviewShiftsWithoutRerender(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	p := f.preview(1, 3)

	if err := f.buf.InsertLines(0, "x", "y", "z"); err != nil {
		t.Fatal(err)
	}
	if got := p.Span(); got != (buffer.LineSpan{Start: 4, End: 6}) {
		t.Errorf("span = %v", got)
	}
	if p.Renders() != 1 {
		t.Errorf("renders = %d, want 1", p.Renders())
	}
	if diff := cmp.Diff([]int{4, 5, 6}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden (-want +got):\n%s", diff)
	}
	if line, _ := f.s.InlineWidgetLine(p); line != 3 {
		t.Errorf("anchor = %d, want 3", line)
	}
}

func TestPreviewRendersOncePerNotification(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	p := f.preview(1, 3)

	err := f.buf.Batch(func(tx *buffer.Batch) error {
		if err := tx.Replace(buffer.Point{Line: 2, Column: 2}, buffer.Point{Line: 2, Column: 3}, "B"); err != nil {
			return err
		}
		return tx.InsertLines(3, "more")
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Renders() != 2 {
		t.Errorf("renders = %d, want 2", p.Renders())
	}
	if p.Source() != "\n# B\nmore\n\n" {
		t.Errorf("source = %q", p.Source())
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden (-want +got):\n%s", diff)
	}
}

func TestEditEndingBeforeBlockDoesNotRerender(t *testing.T) {
	f := newFixture(t, []string{"a", "b", "/**", "# A", "*/"})
	p := f.preview(2, 4)
	if err := f.buf.Insert(buffer.Point{Line: 1, Column: 1}, "!"); err != nil {
		t.Fatal(err)
	}
	if p.Renders() != 1 {
		t.Errorf("renders = %d, want 1", p.Renders())
	}
}

func TestDeletingBlockClosesPreview(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	observers := f.buf.ObserverCount()
	p := f.preview(1, 3)
	if f.buf.RefCount() != 1 {
		t.Fatalf("RefCount = %d after load", f.buf.RefCount())
	}
	closed := 0
	p.OnClose(func() { closed++ })

	if err := f.buf.DeleteLines(1, 3); err != nil {
		t.Fatal(err)
	}
	if !p.Closed() || closed != 1 {
		t.Fatalf("preview not closed: state=%v closed=%d", p.State(), closed)
	}
	if n := len(f.s.InlineWidgets()); n != 0 {
		t.Errorf("surface still has %d widgets", n)
	}
	if f.buf.RefCount() != 0 {
		t.Errorf("RefCount = %d after close", f.buf.RefCount())
	}
	if f.buf.ObserverCount() != observers {
		t.Errorf("observers = %d, want %d", f.buf.ObserverCount(), observers)
	}
	if got := f.s.HiddenLines(); len(got) != 0 {
		t.Errorf("hidden lines = %v", got)
	}
	if p.Renders() != 1 {
		t.Errorf("collapsed block rendered again")
	}
}

func TestDeletingAdjacentBlockKeepsNeighbourHidden(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "one", "*/", "/**", "two", "*/", "b"})
	first := f.preview(1, 3)
	second := f.preview(4, 6)

	if err := f.buf.DeleteLines(1, 3); err != nil {
		t.Fatal(err)
	}
	if !first.Closed() || second.Closed() {
		t.Fatalf("closed: first=%v second=%v", first.Closed(), second.Closed())
	}
	if diff := cmp.Diff(spanLines(second.Span()), f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden (-want +got):\n%s", diff)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	p := f.preview(1, 3)
	p.Toggle()
	edit := p.Editor()
	if edit == nil {
		t.Fatal("no editor")
	}

	p.Close()
	p.Close()
	if f.buf.RefCount() != 0 {
		t.Errorf("RefCount = %d", f.buf.RefCount())
	}
	if !edit.Closed() {
		t.Error("editor left open")
	}
	if p.Content().ListenerCount() != 0 {
		t.Errorf("click listeners = %d", p.Content().ListenerCount())
	}
	if n := len(f.s.MeasureLayer().Children()); n != 0 {
		t.Errorf("measure layer children = %d", n)
	}
	if got := f.s.HiddenLines(); len(got) != 0 {
		t.Errorf("lines still hidden: %v", got)
	}
	if err := p.Load(f.s); err != ErrClosed {
		t.Errorf("Load after close err = %v", err)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	f := newFixture(t, []string{"package main", "/**", "# Title", "*/", "func main() {}"})
	p := f.preview(1, 3)
	f.s.RunDeferred()

	// Row 0 is line 0, row 1 the preview.
	hit := f.s.Click(10, 1)
	if hit.Widget != p {
		t.Fatalf("click hit %+v", hit)
	}
	edit := p.Editor()
	if edit == nil || p.State() != StateEditing {
		t.Fatalf("state = %v, editor = %v", p.State(), edit)
	}
	if line, _ := f.s.InlineWidgetLine(edit); line != 3 {
		t.Errorf("editor anchor = %d, want 3", line)
	}
	if diff := cmp.Diff([]int{1, 2}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden while editing (-want +got):\n%s", diff)
	}
	if !edit.Editor().HasFocus() {
		t.Error("editor not focused")
	}

	ed := edit.Editor()
	ed.SetCursor(2, len("# Title"))
	if err := ed.Type(" Two"); err != nil {
		t.Fatal(err)
	}
	if p.Renders() != 2 {
		t.Errorf("renders = %d, want 2", p.Renders())
	}
	if diff := cmp.Diff([]int{1, 2}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden after typing (-want +got):\n%s", diff)
	}

	f.s.RunDeferred()
	hit = f.s.Click(10, 1)
	if hit.Widget != p {
		t.Fatalf("second click hit %+v", hit)
	}
	if p.Editor() != nil || p.State() != StatePreview || !edit.Closed() {
		t.Fatalf("editor still open: state=%v", p.State())
	}
	if diff := cmp.Diff([]int{1, 2, 3}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden after closing editor (-want +got):\n%s", diff)
	}

	lines, _ := f.buf.Lines(1, 3)
	want := markup.NewMarkdown().Render(scanner.New().Body(lines))
	if p.HTML() != want {
		t.Errorf("HTML = %q, want %q", p.HTML(), want)
	}
	if !slices.Contains(f.r.calls, "\n# Title Two\n\n") {
		t.Errorf("edited text never rendered: %q", f.r.calls)
	}
}

func TestEditorRemovedBySurfaceHidesEndLine(t *testing.T) {
	f := newFixture(t, []string{"package main", "/**", "# Title", "*/", "func main() {}"})
	p := f.preview(1, 3)
	f.s.RunDeferred()

	p.Toggle()
	edit := p.Editor()
	if edit == nil {
		t.Fatal("editor did not open")
	}
	if diff := cmp.Diff([]int{1, 2}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden while editing (-want +got):\n%s", diff)
	}

	if err := f.s.RemoveInlineWidget(edit); err != nil {
		t.Fatal(err)
	}
	if p.Editor() != nil || p.State() != StatePreview {
		t.Fatalf("state = %v after editor removal", p.State())
	}
	if diff := cmp.Diff([]int{1, 2, 3}, f.s.HiddenLines()); diff != "" {
		t.Errorf("hidden after editor removal (-want +got):\n%s", diff)
	}
}

func TestPreviewLoadErrors(t *testing.T) {
	f := newFixture(t, []string{"/**", "*/"})
	p := NewPreview(0, 5, f.r)
	if err := p.Load(f.s); err == nil {
		t.Error("Load accepted a span past the end of the buffer")
	}
	p = NewPreview(0, 1, f.r)
	if err := p.Load(f.s); err != nil {
		t.Fatal(err)
	}
	if err := p.Load(f.s); err != ErrAlreadyLoaded {
		t.Errorf("second Load err = %v", err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateRendering: "rendering",
		StatePreview:   "preview",
		StateEditing:   "editing",
		StateClosed:    "closed",
		State(42):      "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

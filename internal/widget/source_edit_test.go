package widget

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/host"
)

func longDocument(n int, block map[int]string) []string {
	lines := make([]string, n)
	for i := range lines {
		if s, ok := block[i]; ok {
			lines[i] = s
			continue
		}
		lines[i] = fmt.Sprintf("line %d", i)
	}
	return lines
}

func openEditor(t *testing.T, f *fixture, p *Preview) *SourceEdit {
	t.Helper()
	p.Toggle()
	edit := p.Editor()
	if edit == nil {
		t.Fatal("editor did not open")
	}
	f.s.RunDeferred()
	return edit
}

func TestSourceEditSizesToSpanPlusPadding(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	p := f.preview(1, 3)
	edit := openEditor(t, f, p)

	if h, _ := f.s.InlineWidgetHeight(edit); h != 5 {
		t.Errorf("height = %d, want 5", h)
	}
	ed := edit.Editor()
	ed.SetCursor(2, 3)
	if err := ed.Newline(); err != nil {
		t.Fatal(err)
	}
	if h, _ := f.s.InlineWidgetHeight(edit); h != 6 {
		t.Errorf("height after newline = %d, want 6", h)
	}
	if got := edit.Span(); got != (buffer.LineSpan{Start: 1, End: 3}) {
		t.Errorf("Span changed to %v", got)
	}
	if got := ed.Span(); got != (buffer.LineSpan{Start: 1, End: 4}) {
		t.Errorf("editor span = %v", got)
	}
}

func TestSourceEditKeepsCursorOnScreen(t *testing.T) {
	lines := longDocument(40, map[int]string{5: "/**", 6: "text", 7: "*/"})
	f := newFixture(t, lines, host.WithViewport(40, 8))
	p := f.preview(5, 7)
	edit := openEditor(t, f, p)
	ed := edit.Editor()

	ed.SetCursor(6, len("text"))
	for i := range 15 {
		if err := ed.Newline(); err != nil {
			t.Fatal(err)
		}
		f.s.Refresh()
		c := ed.CursorCoords()
		if c.Top < 0 || c.Bottom > 8 {
			t.Fatalf("newline %d: cursor rows [%d, %d) outside the viewport", i, c.Top, c.Bottom)
		}
	}
	if _, y := f.s.ScrollPos(); y == 0 {
		t.Error("surface never scrolled")
	}

	ed.SetCursor(ed.FirstVisibleLine(), 0)
	f.s.Refresh()
	if c := ed.CursorCoords(); c.Top < 0 || c.Bottom > 8 {
		t.Errorf("cursor rows [%d, %d) outside the viewport after jumping up", c.Top, c.Bottom)
	}
}

func TestSourceEditCursorNeedsFocus(t *testing.T) {
	lines := longDocument(40, map[int]string{5: "/**", 6: "text", 7: "*/"})
	f := newFixture(t, lines, host.WithViewport(40, 8))
	p := f.preview(5, 7)
	edit := openEditor(t, f, p)

	f.s.Blur()
	f.s.ScrollTo(0, 30)
	edit.Editor().SetCursor(6, 0)
	if _, y := f.s.ScrollPos(); y != 30 {
		t.Errorf("unfocused editor scrolled the surface to %d", y)
	}
}

func TestSourceEditClickSnapsToEnds(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	p := f.preview(1, 3)
	edit := openEditor(t, f, p)
	ed := edit.Editor()

	top, ok := f.s.WidgetTop(edit)
	if !ok {
		t.Fatal("editor not displayed")
	}
	tests := []struct {
		name string
		y    int
		want buffer.Point
	}{
		{"top padding", top, buffer.Point{Line: 1, Column: 0}},
		{"inside", top + 2, buffer.Point{Line: 2, Column: 2}},
		{"bottom padding", top + 4, buffer.Point{Line: 3, Column: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed.SetCursor(2, 1)
			f.s.Blur()
			hit := f.s.Click(7, tt.y)
			if hit.Widget != edit {
				t.Fatalf("click hit %+v", hit)
			}
			if got := ed.Cursor(); got != tt.want {
				t.Errorf("cursor = %v, want %v", got, tt.want)
			}
			if !ed.HasFocus() {
				t.Error("click did not focus the editor")
			}
		})
	}
}

func TestSourceEditCloseDropsListeners(t *testing.T) {
	f := newFixture(t, []string{"a", "/**", "# A", "*/", "b"})
	p := f.preview(1, 3)
	observers := f.buf.ObserverCount()
	edit := openEditor(t, f, p)
	ed := edit.Editor()
	if ed.ListenerCount() != 2 || edit.Content().ListenerCount() != 1 {
		t.Fatalf("listeners = %d/%d", ed.ListenerCount(), edit.Content().ListenerCount())
	}

	closed := 0
	edit.OnClose(func() { closed++ })
	if err := f.s.RemoveInlineWidget(edit); err != nil {
		t.Fatal(err)
	}
	edit.OnClosed()
	if closed != 1 {
		t.Errorf("close callbacks = %d, want 1", closed)
	}
	if ed.ListenerCount() != 0 || edit.Content().ListenerCount() != 0 {
		t.Errorf("listeners left: %d/%d", ed.ListenerCount(), edit.Content().ListenerCount())
	}
	if f.buf.ObserverCount() != observers {
		t.Errorf("observers = %d, want %d", f.buf.ObserverCount(), observers)
	}
	if p.Editor() != nil || p.State() != StatePreview {
		t.Errorf("preview still editing: %v", p.State())
	}
	if err := edit.Load(f.s); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after close err = %v", err)
	}
}

func TestSourceEditLoadErrors(t *testing.T) {
	f := newFixture(t, []string{"/**", "*/"})
	edit := NewSourceEdit(0, 9)
	if err := edit.Load(f.s); err == nil {
		t.Error("Load accepted an out of range span")
	}
	edit = NewSourceEdit(0, 1, WithID("edit"))
	if err := edit.Load(f.s); err != nil {
		t.Fatal(err)
	}
	if edit.ID() != "edit" {
		t.Errorf("ID = %q", edit.ID())
	}
	if err := edit.Load(f.s); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("second Load err = %v", err)
	}
}

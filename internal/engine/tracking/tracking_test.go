package tracking

import (
	"errors"
	"testing"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
)

func newDoc(lines ...string) *buffer.Buffer {
	return buffer.NewBufferFromLines(lines)
}

func mustRange(t *testing.T, b *buffer.Buffer, start, end int) *Range {
	t.Helper()
	r, err := NewRange(b, start, end)
	if err != nil {
		t.Fatalf("NewRange(%d, %d): %v", start, end, err)
	}
	return r
}

func TestNewRangeValidation(t *testing.T) {
	b := newDoc("a", "b")
	tests := []struct{ start, end int }{{-1, 0}, {1, 0}, {0, 2}}
	for _, tt := range tests {
		if _, err := NewRange(b, tt.start, tt.end); !errors.Is(err, ErrInvalidSpan) {
			t.Errorf("NewRange(%d, %d): expected ErrInvalidSpan, got %v", tt.start, tt.end, err)
		}
	}
}

func TestRangeShiftsOnInsertBefore(t *testing.T) {
	for _, n := range []int{1, 3, 7} {
		b := newDoc("code", "/**", "# Title", "*/", "more")
		r := mustRange(t, b, 1, 3)

		lines := make([]string, n)
		if err := b.InsertLines(0, lines...); err != nil {
			t.Fatal(err)
		}

		if r.StartLine() != 1+n || r.EndLine() != 3+n {
			t.Errorf("insert %d: got %v, want [%d..%d]", n, r, 1+n, 3+n)
		}
		if r.Span().Len() != 3 {
			t.Errorf("insert %d: length changed to %d", n, r.Span().Len())
		}
	}
}

func TestRangeGrowsOnEditInside(t *testing.T) {
	b := newDoc("/**", "# Title", "*/")
	r := mustRange(t, b, 0, 2)

	// typing Enter at the end of the title line
	if err := b.Insert(buffer.Point{Line: 1, Column: 7}, "\nmore"); err != nil {
		t.Fatal(err)
	}
	if r.StartLine() != 0 || r.EndLine() != 3 {
		t.Errorf("got %v, want [0..3]", r)
	}

	// joining two body lines shrinks it again
	if err := b.Delete(buffer.Point{Line: 1, Column: 7}, buffer.Point{Line: 2, Column: 0}); err != nil {
		t.Fatal(err)
	}
	if r.EndLine() != 2 {
		t.Errorf("got %v, want [0..2]", r)
	}
}

func TestRangeIgnoresEditsAfter(t *testing.T) {
	b := newDoc("/**", "x", "*/", "code")
	r := mustRange(t, b, 0, 2)

	if err := b.InsertLines(4, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if r.Span() != (buffer.LineSpan{Start: 0, End: 2}) {
		t.Errorf("got %v", r)
	}
}

func TestTwoBlocksSeparatedByCode(t *testing.T) {
	b := newDoc("/**", "first", "*/", "func f() {}", "/**", "second", "*/")
	first := mustRange(t, b, 0, 2)
	second := mustRange(t, b, 4, 6)

	if err := b.InsertLines(3, "x := 1", "y := 2", "z := 3"); err != nil {
		t.Fatal(err)
	}

	if first.Span() != (buffer.LineSpan{Start: 0, End: 2}) {
		t.Errorf("first block moved: %v", first)
	}
	if second.Span() != (buffer.LineSpan{Start: 7, End: 9}) {
		t.Errorf("second block = %v, want [7..9]", second)
	}
}

func TestRangeShiftsOnInsertAtStart(t *testing.T) {
	tests := []struct {
		name string
		edit func(b *buffer.Buffer) error
		want buffer.LineSpan
	}{
		{"whole lines", func(b *buffer.Buffer) error {
			return b.InsertLines(4, "x := 1", "y := 2", "z := 3")
		}, buffer.LineSpan{Start: 7, End: 9}},
		{"enter at column 0", func(b *buffer.Buffer) error {
			return b.Insert(buffer.Point{Line: 4}, "\n")
		}, buffer.LineSpan{Start: 5, End: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDoc("/**", "first", "*/", "func f() {}", "/**", "second", "*/")
			first := mustRange(t, b, 0, 2)
			second := mustRange(t, b, 4, 6)

			if err := tt.edit(b); err != nil {
				t.Fatal(err)
			}
			if first.Span() != (buffer.LineSpan{Start: 0, End: 2}) {
				t.Errorf("first block moved: %v", first)
			}
			if second.Span() != tt.want {
				t.Errorf("second block = %v, want %v", second, tt.want)
			}
			if got := b.LineText(second.StartLine()); got != "/**" {
				t.Errorf("start line = %q, want /**", got)
			}
		})
	}
}

func TestRangeCollapsesWhenSpanDeleted(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		start    int
		end      int
		from, to int
		wantLine int
	}{
		{"whole buffer", []string{"/**", "# Title", "*/"}, 0, 2, 0, 2, 0},
		{"block at top", []string{"/**", "# Title", "*/", "code"}, 0, 2, 0, 2, 0},
		{"block at bottom", []string{"code", "/**", "x", "*/"}, 1, 3, 1, 3, 0},
		{"larger deletion", []string{"a", "/**", "x", "*/", "b", "c"}, 1, 3, 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newDoc(tt.lines...)
			r := mustRange(t, b, tt.start, tt.end)
			var fired bool
			r.OnChange(func(_, _ buffer.LineSpan) { fired = true })

			if err := b.DeleteLines(tt.from, tt.to); err != nil {
				t.Fatal(err)
			}
			if !r.Collapsed() {
				t.Fatalf("expected collapse, got %v", r)
			}
			if r.StartLine() != tt.wantLine || r.EndLine() != tt.wantLine {
				t.Errorf("collapsed at %v, want line %d", r, tt.wantLine)
			}
			if !fired {
				t.Error("OnChange not fired on collapse")
			}

			// collapsed ranges stop tracking
			_ = b.InsertLines(0, "more")
			if r.StartLine() != tt.wantLine {
				t.Errorf("collapsed range moved to %v", r)
			}
		})
	}
}

func TestRangeBodyDeletionDoesNotCollapse(t *testing.T) {
	b := newDoc("/**", "one", "two", "*/")
	r := mustRange(t, b, 0, 3)

	if err := b.Delete(buffer.Point{Line: 0, Column: 3}, buffer.Point{Line: 3, Column: 0}); err != nil {
		t.Fatal(err)
	}
	if r.Collapsed() {
		t.Fatal("deleting the body must not collapse the range")
	}
	if r.Span() != (buffer.LineSpan{Start: 0, End: 0}) {
		t.Errorf("got %v", r)
	}
}

func TestRangeBatchedChanges(t *testing.T) {
	b := newDoc("a", "/**", "x", "*/", "b")
	r := mustRange(t, b, 1, 3)

	err := b.Batch(func(tx *buffer.Batch) error {
		if err := tx.InsertLines(0, "1", "2"); err != nil {
			return err
		}
		return tx.InsertLines(4, "inside")
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Span() != (buffer.LineSpan{Start: 3, End: 6}) {
		t.Errorf("got %v, want [3..6]", r)
	}
}

func TestRangeDispose(t *testing.T) {
	b := newDoc("/**", "*/")
	r := mustRange(t, b, 0, 1)
	if b.ObserverCount() != 1 {
		t.Fatalf("expected subscription")
	}
	r.Dispose()
	r.Dispose()
	if !r.Disposed() || b.ObserverCount() != 0 {
		t.Error("dispose must unsubscribe exactly once")
	}
}

func TestMapLine(t *testing.T) {
	b := newDoc("a", "b", "c", "d")
	var changes buffer.ChangeList
	b.Subscribe(func(_ *buffer.Buffer, cl buffer.ChangeList) { changes = cl })

	// whole-line insert before "b": b's handle moves down with its content
	_ = b.InsertLines(1, "x")
	c := changes[0]
	if got := MapLine(c, 1); got != 2 {
		t.Errorf("MapLine(b) = %d, want 2", got)
	}
	if got := MapLine(c, 0); got != 0 {
		t.Errorf("MapLine(a) = %d, want 0", got)
	}

	// deleting lines 1-2 keeps line 3's handle
	_ = b.DeleteLines(1, 2)
	c = changes[0]
	if Survives(c, 1) || Survives(c, 2) || !Survives(c, 3) {
		t.Error("unexpected survivors")
	}
	if got := MapLine(c, 3); got != 1 {
		t.Errorf("MapLine(3) = %d, want 1", got)
	}

	span := MapSpan(buffer.ChangeList{c}, buffer.LineSpan{Start: 3, End: 4})
	if span != (buffer.LineSpan{Start: 1, End: 2}) {
		t.Errorf("MapSpan = %v", span)
	}
}

package history

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
)

func pt(line, col int) buffer.Point { return buffer.Point{Line: line, Column: col} }

func lines(b *buffer.Buffer) []string {
	out, _ := b.Lines(0, b.LineCount()-1)
	return out
}

func TestUndoRedoSingleEdits(t *testing.T) {
	buf := buffer.NewBufferFromLines([]string{"one", "two"})
	h := New(buf, WithMergeWindow(0))
	defer h.Close()

	if err := buf.Replace(pt(0, 0), pt(0, 3), "ONE\nextra"); err != nil {
		t.Fatal(err)
	}
	if err := buf.Delete(pt(2, 0), pt(2, 1)); err != nil {
		t.Fatal(err)
	}
	want := []string{"ONE", "extra", "wo"}
	if diff := cmp.Diff(want, lines(buf)); diff != "" {
		t.Fatalf("after edits (-want +got):\n%s", diff)
	}

	at, err := h.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if at != pt(2, 1) {
		t.Errorf("undo point = %v", at)
	}
	at, err = h.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if at != pt(0, 3) {
		t.Errorf("undo point = %v", at)
	}
	if diff := cmp.Diff([]string{"one", "two"}, lines(buf)); diff != "" {
		t.Errorf("after undo (-want +got):\n%s", diff)
	}
	if _, err := h.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("empty undo err = %v", err)
	}

	for range 2 {
		if _, err := h.Redo(); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(want, lines(buf)); diff != "" {
		t.Errorf("after redo (-want +got):\n%s", diff)
	}
	if _, err := h.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("empty redo err = %v", err)
	}
}

func TestBatchUndoesAsOneEntry(t *testing.T) {
	buf := buffer.NewBufferFromLines([]string{"a", "b", "c"})
	h := New(buf)
	defer h.Close()

	notifications := 0
	sub := buf.Subscribe(func(*buffer.Buffer, buffer.ChangeList) { notifications++ })
	defer sub.Cancel()

	err := buf.Batch(func(tx *buffer.Batch) error {
		if err := tx.InsertLines(1, "x", "y"); err != nil {
			return err
		}
		return tx.DeleteLines(4, 4)
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "x", "y", "b"}, lines(buf)); diff != "" {
		t.Fatalf("after batch (-want +got):\n%s", diff)
	}
	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount = %d", h.UndoCount())
	}

	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, lines(buf)); diff != "" {
		t.Errorf("after undo (-want +got):\n%s", diff)
	}
	if notifications != 2 {
		t.Errorf("notifications = %d, want 2", notifications)
	}
	if h.UndoCount() != 0 || h.RedoCount() != 1 {
		t.Errorf("counts = %d/%d", h.UndoCount(), h.RedoCount())
	}
}

func TestTypingMerges(t *testing.T) {
	buf := buffer.NewBufferFromLines([]string{""})
	h := New(buf, WithMergeWindow(time.Hour))
	defer h.Close()

	for i, s := range []string{"a", "b", "c", " ", "d"} {
		if err := buf.Insert(pt(0, i), s); err != nil {
			t.Fatal(err)
		}
	}
	if h.UndoCount() != 2 {
		t.Errorf("UndoCount = %d, want 2", h.UndoCount())
	}

	tests := []string{"abc", ""}
	for _, want := range tests {
		if _, err := h.Undo(); err != nil {
			t.Fatal(err)
		}
		if got := buf.LineText(0); got != want {
			t.Errorf("after undo = %q, want %q", got, want)
		}
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	buf := buffer.NewBufferFromLines([]string{"x"})
	h := New(buf, WithMergeWindow(0))
	defer h.Close()

	_ = buf.Insert(pt(0, 1), "y")
	_, _ = h.Undo()
	if !h.CanRedo() {
		t.Fatal("nothing to redo")
	}
	_ = buf.Insert(pt(0, 0), "z")
	if h.CanRedo() {
		t.Error("edit kept the redo stack")
	}
}

func TestTransactionAndLimits(t *testing.T) {
	buf := buffer.NewBufferFromLines([]string{""})
	h := New(buf, WithMaxEntries(2), WithMergeWindow(0))
	defer h.Close()

	err := h.Transaction(func() error {
		_ = buf.Insert(pt(0, 0), "a")
		_ = buf.Insert(pt(0, 1), "b")
		return errors.New("stop")
	})
	if err == nil {
		t.Fatal("Transaction swallowed the error")
	}
	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount = %d", h.UndoCount())
	}

	_ = buf.Insert(pt(0, 2), "c")
	_ = buf.Insert(pt(0, 3), "d")
	if h.UndoCount() != 2 {
		t.Errorf("UndoCount = %d, want the limit", h.UndoCount())
	}

	h.Clear()
	if h.CanUndo() {
		t.Error("Clear kept entries")
	}

	h.Close()
	_ = buf.Insert(pt(0, 0), "e")
	if _, err := h.Undo(); !errors.Is(err, ErrClosed) {
		t.Errorf("Undo after Close err = %v", err)
	}
	if buf.ObserverCount() != 0 {
		t.Errorf("observers = %d", buf.ObserverCount())
	}
}

func TestOperationInvert(t *testing.T) {
	op := Operation{From: pt(1, 2), To: pt(1, 4), OldText: []string{"ab"}, NewText: []string{"x", "yz"}}
	inv := op.Invert()
	want := Operation{From: pt(1, 2), To: pt(2, 2), OldText: []string{"x", "yz"}, NewText: []string{"ab"}}
	if diff := cmp.Diff(want, inv, cmpopts.IgnoreFields(Operation{}, "Timestamp")); diff != "" {
		t.Errorf("Invert (-want +got):\n%s", diff)
	}
	if got := inv.NewEnd(); got != pt(1, 4) {
		t.Errorf("NewEnd = %v", got)
	}
}

package history

import (
	"strings"
	"time"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
)

// Operation represents a single undoable replacement.
type Operation struct {
	// From and To delimit the replaced text before the edit.
	From buffer.Point
	To   buffer.Point

	OldText []string // Text that was replaced (for undo)
	NewText []string // Text that was inserted (for redo)

	Timestamp time.Time
}

// FromChange converts a buffer change.
func FromChange(c buffer.Change) Operation {
	return Operation{
		From:      c.From,
		To:        c.To,
		OldText:   c.Removed,
		NewText:   c.Text,
		Timestamp: time.Now(),
	}
}

// NewEnd returns the end of the inserted text after the edit.
func (op Operation) NewEnd() buffer.Point {
	return endOf(op.From, op.NewText)
}

func endOf(from buffer.Point, text []string) buffer.Point {
	if len(text) <= 1 {
		n := 0
		if len(text) == 1 {
			n = len(text[0])
		}
		return buffer.Point{Line: from.Line, Column: from.Column + n}
	}
	last := text[len(text)-1]
	return buffer.Point{Line: from.Line + len(text) - 1, Column: len(last)}
}

// Invert returns an operation that undoes this one.
func (op Operation) Invert() Operation {
	return Operation{
		From:      op.From,
		To:        op.NewEnd(),
		OldText:   op.NewText,
		NewText:   op.OldText,
		Timestamp: time.Now(),
	}
}

// IsInsert reports whether the operation removed nothing.
func (op Operation) IsInsert() bool { return op.From == op.To }

func (op Operation) apply(tx *buffer.Batch) error {
	return tx.Replace(op.From, op.To, strings.Join(op.NewText, "\n"))
}

// mergeable reports whether next continues typing at the end of op on the
// same line.
func (op Operation) mergeable(next Operation, window time.Duration) bool {
	if !op.IsInsert() || !next.IsInsert() || len(op.NewText) != 1 || len(next.NewText) != 1 {
		return false
	}
	if next.From != op.NewEnd() || next.Timestamp.Sub(op.Timestamp) > window {
		return false
	}
	return !strings.ContainsAny(next.NewText[0], " \t")
}

func (op Operation) merge(next Operation) Operation {
	op.NewText = []string{op.NewText[0] + next.NewText[0]}
	op.Timestamp = next.Timestamp
	return op
}

// OperationList is a sequence of operations applied in order, each in the
// coordinates produced by its predecessors.
type OperationList []Operation

// Invert returns a list of inverse operations in reverse order.
func (ops OperationList) Invert() OperationList {
	result := make(OperationList, len(ops))
	for i, op := range ops {
		result[len(ops)-1-i] = op.Invert()
	}
	return result
}

// Apply applies the list as one buffer batch and returns the end of the
// last inserted text.
func (ops OperationList) Apply(buf *buffer.Buffer) (buffer.Point, error) {
	var at buffer.Point
	err := buf.Batch(func(tx *buffer.Batch) error {
		for _, op := range ops {
			if err := op.apply(tx); err != nil {
				return err
			}
			at = op.NewEnd()
		}
		return nil
	})
	return at, err
}

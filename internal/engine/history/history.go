package history

import (
	"errors"
	"sync"
	"time"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrClosed        = errors.New("history closed")
)

// DefaultMaxEntries bounds the undo stack.
const DefaultMaxEntries = 1000

// DefaultMergeWindow is the longest pause between typed characters that
// still merge into one entry.
const DefaultMergeWindow = time.Second

// Option configures a History.
type Option func(*History)

// WithMaxEntries bounds the undo stack; older entries are dropped.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithMergeWindow sets the typing merge window. Zero disables merging.
func WithMergeWindow(d time.Duration) Option {
	return func(h *History) { h.mergeWindow = d }
}

// History manages undo/redo state for a buffer.
type History struct {
	mu sync.Mutex

	buf *buffer.Buffer
	sub *buffer.Subscription

	undoStack []OperationList
	redoStack []OperationList

	// Grouping state
	grouping bool
	group    OperationList

	applying    bool
	maxEntries  int
	mergeWindow time.Duration
	closed      bool
}

// New creates a history that records the edits made to buf.
func New(buf *buffer.Buffer, opts ...Option) *History {
	h := &History{
		buf:         buf,
		maxEntries:  DefaultMaxEntries,
		mergeWindow: DefaultMergeWindow,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sub = buf.Subscribe(h.record)
	return h
}

func (h *History) record(_ *buffer.Buffer, changes buffer.ChangeList) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.applying || h.closed {
		return
	}
	ops := make(OperationList, len(changes))
	for i, c := range changes {
		ops[i] = FromChange(c)
	}
	if h.grouping {
		h.group = append(h.group, ops...)
		return
	}
	h.pushLocked(ops)
}

// pushLocked adds an entry, merging typing into the previous entry, and
// clears the redo stack.
func (h *History) pushLocked(ops OperationList) {
	h.redoStack = nil
	if n := len(h.undoStack); n > 0 && len(ops) == 1 && h.mergeWindow > 0 {
		prev := h.undoStack[n-1]
		if last := prev[len(prev)-1]; len(prev) == 1 && last.mergeable(ops[0], h.mergeWindow) {
			h.undoStack[n-1] = OperationList{last.merge(ops[0])}
			return
		}
	}
	h.undoStack = append(h.undoStack, ops)
	if excess := len(h.undoStack) - h.maxEntries; excess > 0 {
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo reverts the most recent entry and returns the point where the
// reverted text ends.
func (h *History) Undo() (buffer.Point, error) {
	return h.move(&h.undoStack, &h.redoStack, ErrNothingToUndo, OperationList.Invert)
}

// Redo reapplies the most recently undone entry and returns the point where
// the reapplied text ends.
func (h *History) Redo() (buffer.Point, error) {
	return h.move(&h.redoStack, &h.undoStack, ErrNothingToRedo, func(ops OperationList) OperationList { return ops })
}

func (h *History) move(from, to *[]OperationList, empty error, transform func(OperationList) OperationList) (buffer.Point, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return buffer.Point{}, ErrClosed
	}
	if len(*from) == 0 {
		h.mu.Unlock()
		return buffer.Point{}, empty
	}
	entry := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]
	h.applying = true
	h.mu.Unlock()

	// The lock is released while observers run.
	at, err := transform(entry).Apply(h.buf)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.applying = false
	if err != nil {
		// A partially applied entry cannot be replayed reliably.
		h.undoStack, h.redoStack = nil, nil
		return buffer.Point{}, err
	}
	*to = append(*to, entry)
	return at, nil
}

// BeginGroup starts collecting edits into one entry.
func (h *History) BeginGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.grouping {
		h.grouping = true
		h.group = nil
	}
}

// EndGroup closes the group opened by BeginGroup.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.grouping {
		return
	}
	h.grouping = false
	if len(h.group) > 0 {
		h.undoStack = append(h.undoStack, h.group)
		h.redoStack = nil
	}
	h.group = nil
}

// Transaction runs fn with its edits grouped into one entry. The group is
// kept when fn fails, since the edits it made stay in the buffer.
func (h *History) Transaction(fn func() error) error {
	h.BeginGroup()
	defer h.EndGroup()
	return fn()
}

// CanUndo reports whether Undo has an entry to revert.
func (h *History) CanUndo() bool { return h.UndoCount() > 0 }

// CanRedo reports whether Redo has an entry to reapply.
func (h *History) CanRedo() bool { return h.RedoCount() > 0 }

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack, h.redoStack = nil, nil
}

// Close stops recording.
func (h *History) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.sub.Cancel()
	h.undoStack, h.redoStack = nil, nil
}

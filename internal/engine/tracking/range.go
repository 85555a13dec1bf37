package tracking

import (
	"fmt"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
)

// Source is a buffer a Range can observe.
type Source interface {
	LineCount() int
	Subscribe(obs buffer.Observer) *buffer.Subscription
}

// Range is an inclusive line span that follows edits to its buffer.
// Ranges are driven by the buffer's notification fan-out and are not safe
// for concurrent use.
type Range struct {
	start     int
	end       int
	collapsed bool
	disposed  bool
	sub       *buffer.Subscription
	listeners []func(old, cur buffer.LineSpan)
}

// NewRange binds a new Range over [start, end] of src.
func NewRange(src Source, start, end int) (*Range, error) {
	if start < 0 || start > end || end >= src.LineCount() {
		return nil, fmt.Errorf("%w: [%d..%d] of %d lines", ErrInvalidSpan, start, end, src.LineCount())
	}
	r := &Range{start: start, end: end}
	r.sub = src.Subscribe(r.onChange)
	return r, nil
}

// StartLine returns the first line of the range.
func (r *Range) StartLine() int {
	return r.start
}

// EndLine returns the last line of the range.
func (r *Range) EndLine() int {
	return r.end
}

// Span returns the current bounds.
func (r *Range) Span() buffer.LineSpan {
	return buffer.LineSpan{Start: r.start, End: r.end}
}

// Collapsed reports whether an edit removed the whole range.
func (r *Range) Collapsed() bool {
	return r.collapsed
}

// Disposed reports whether Dispose has been called.
func (r *Range) Disposed() bool {
	return r.disposed
}

// OnChange registers fn to run after the bounds move.
func (r *Range) OnChange(fn func(old, cur buffer.LineSpan)) {
	r.listeners = append(r.listeners, fn)
}

// Dispose detaches the range from its buffer. Bounds must not be read afterwards.
func (r *Range) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.sub.Cancel()
	r.listeners = nil
}

// String returns a human-readable representation of the range.
func (r *Range) String() string {
	if r.collapsed {
		return fmt.Sprintf("[%d..%d collapsed]", r.start, r.end)
	}
	return r.Span().String()
}

func (r *Range) onChange(_ *buffer.Buffer, changes buffer.ChangeList) {
	if r.disposed || r.collapsed {
		return
	}
	old := r.Span()
	for _, c := range changes {
		r.apply(c)
		if r.collapsed {
			break
		}
	}
	if cur := r.Span(); cur != old || r.collapsed {
		for _, fn := range r.listeners {
			fn(old, cur)
		}
	}
}

// Apply adjusts the range for a single change. It is exported for callers
// that replay changes without a live subscription.
func (r *Range) Apply(c buffer.Change) {
	if !r.disposed && !r.collapsed {
		r.apply(c)
	}
}

func (r *Range) apply(c buffer.Change) {
	delta := c.InsertedLineCount()

	switch {
	case c.From.Line > r.end:
		// after the range
	case c.To.Line < r.start:
		r.start += delta
		r.end += delta
	case r.coveredBy(c):
		r.start = c.From.Line
		r.end = c.From.Line
		r.collapsed = true
	case c.To.Line == r.start && keepsLast(c):
		// lines inserted at the start push the whole range down
		r.start = lastNewLine(c)
		r.end += delta
	case c.From.Line >= r.start:
		if c.To.Line <= r.end {
			r.end += delta
		} else {
			r.end = lastNewLine(c)
		}
	default:
		// starts above the range and ends inside it
		r.start = lastNewLine(c)
		r.end += delta
	}

	if r.end < r.start {
		r.end = r.start
	}
}

// coveredBy reports whether c removes every character of the range.
func (r *Range) coveredBy(c buffer.Change) bool {
	if c.From == c.To {
		return false
	}
	if c.From.Line > r.start || c.To.Line < r.end {
		return false
	}
	if c.From.Line == r.start && c.From.Column != 0 {
		return false
	}
	if c.To.Line == r.end && c.TailLen != 0 {
		return false
	}
	return true
}

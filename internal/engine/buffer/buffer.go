package buffer

import (
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// Errors returned by buffer operations.
var (
	ErrLineOutOfRange  = errors.New("line out of range")
	ErrPointOutOfRange = errors.New("point out of range")
	ErrInvalidRange    = errors.New("invalid range")
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	if le == LineEndingCRLF {
		return "\\r\\n"
	}
	return "\\n"
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	if le == LineEndingCRLF {
		return "\r\n"
	}
	return "\n"
}

// Buffer is a line-indexed text buffer that reports its mutations to
// observers. A buffer always holds at least one (possibly empty) line.
type Buffer struct {
	mu         sync.RWMutex
	lines      []string
	lineEnding LineEnding
	name       string
	revision   uint64

	obsMu     sync.Mutex
	observers []*Subscription
	nextSubID uint64

	refs atomic.Int32
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		lines:      []string{""},
		lineEnding: LineEndingLF,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
// CRLF and CR line endings are normalized.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.lines = splitLines(normalizeLineEndings(s))
	return b
}

// NewBufferFromLines creates a buffer holding a copy of lines.
func NewBufferFromLines(lines []string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	if len(lines) > 0 {
		b.lines = append([]string(nil), lines...)
	}
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

// Read Operations

// Name returns the display name of the buffer.
func (b *Buffer) Name() string {
	return b.name
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// LineText returns the text of a line without its newline.
// Out-of-range lines return the empty string.
func (b *Buffer) LineText(line int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if line < 0 || line >= len(b.lines) {
		return ""
	}
	return b.lines[line]
}

// Lines returns a copy of the lines in the inclusive range [from, to].
func (b *Buffer) Lines(from, to int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if from < 0 || to >= len(b.lines) || from > to {
		return nil, ErrLineOutOfRange
	}
	return append([]string(nil), b.lines[from:to+1]...), nil
}

// Text returns the full buffer content using the buffer's line ending.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.lines, b.lineEnding.Sequence())
}

// Revision returns a counter incremented by every mutation.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// LineEnding returns the line ending used by Text.
func (b *Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

// EndPoint returns the position after the last character of the buffer.
func (b *Buffer) EndPoint() Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	last := len(b.lines) - 1
	return Point{Line: last, Column: len(b.lines[last])}
}

// Write Operations

// Replace replaces the text between from and to with text and notifies observers.
func (b *Buffer) Replace(from, to Point, text string) error {
	b.mu.Lock()
	change, err := b.replaceLocked(from, to, text)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.notify(ChangeList{change})
	return nil
}

// Insert inserts text at the given point.
func (b *Buffer) Insert(at Point, text string) error {
	return b.Replace(at, at, text)
}

// Delete removes the text between from and to.
func (b *Buffer) Delete(from, to Point) error {
	return b.Replace(from, to, "")
}

// InsertLines inserts whole lines so that the first of them becomes line at.
// at may equal LineCount to append at the end of the buffer.
func (b *Buffer) InsertLines(at int, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	from, text, err := b.insertLinesEdit(at, lines)
	if err != nil {
		return err
	}
	return b.Replace(from, from, text)
}

func (b *Buffer) insertLinesEdit(at int, lines []string) (Point, string, error) {
	count := b.LineCount()
	if at < 0 || at > count {
		return Point{}, "", ErrLineOutOfRange
	}
	joined := strings.Join(lines, "\n")
	if at == count {
		last := count - 1
		return Point{Line: last, Column: len(b.LineText(last))}, "\n" + joined, nil
	}
	return Point{Line: at}, joined + "\n", nil
}

// DeleteLines removes the lines in the inclusive range [from, to].
// Deleting every line leaves a single empty line.
func (b *Buffer) DeleteLines(from, to int) error {
	start, end, err := b.deleteLinesEdit(from, to)
	if err != nil {
		return err
	}
	return b.Replace(start, end, "")
}

func (b *Buffer) deleteLinesEdit(from, to int) (Point, Point, error) {
	count := b.LineCount()
	if from < 0 || to >= count || from > to {
		return Point{}, Point{}, ErrLineOutOfRange
	}
	switch {
	case to < count-1:
		return Point{Line: from}, Point{Line: to + 1}, nil
	case from > 0:
		return Point{Line: from - 1, Column: len(b.LineText(from - 1))},
			Point{Line: to, Column: len(b.LineText(to))}, nil
	default:
		return Point{}, Point{Line: to, Column: len(b.LineText(to))}, nil
	}
}

// Batch applies every edit made through the Batch handle and delivers them
// to observers as a single ChangeList. Edits applied before fn returns an
// error are kept and still delivered.
func (b *Buffer) Batch(fn func(tx *Batch) error) error {
	tx := &Batch{buf: b}
	err := fn(tx)
	if len(tx.changes) > 0 {
		b.notify(tx.changes)
	}
	return err
}

// Batch collects edits for Buffer.Batch.
type Batch struct {
	buf     *Buffer
	changes ChangeList
}

// Replace replaces the text between from and to.
func (tx *Batch) Replace(from, to Point, text string) error {
	tx.buf.mu.Lock()
	change, err := tx.buf.replaceLocked(from, to, text)
	tx.buf.mu.Unlock()
	if err != nil {
		return err
	}
	tx.changes = append(tx.changes, change)
	return nil
}

// InsertLines inserts whole lines at line at.
func (tx *Batch) InsertLines(at int, lines ...string) error {
	if len(lines) == 0 {
		return nil
	}
	from, text, err := tx.buf.insertLinesEdit(at, lines)
	if err != nil {
		return err
	}
	return tx.Replace(from, from, text)
}

// DeleteLines removes the lines in [from, to].
func (tx *Batch) DeleteLines(from, to int) error {
	start, end, err := tx.buf.deleteLinesEdit(from, to)
	if err != nil {
		return err
	}
	return tx.Replace(start, end, "")
}

func (b *Buffer) validPoint(p Point) bool {
	if p.Line < 0 || p.Line >= len(b.lines) {
		return false
	}
	return p.Column >= 0 && p.Column <= len(b.lines[p.Line])
}

// replaceLocked applies a replacement. Caller must hold the write lock.
func (b *Buffer) replaceLocked(from, to Point, text string) (Change, error) {
	if !b.validPoint(from) || !b.validPoint(to) {
		return Change{}, ErrPointOutOfRange
	}
	if to.Before(from) {
		return Change{}, ErrInvalidRange
	}

	inserted := splitLines(normalizeLineEndings(text))
	removed := b.sliceLocked(from, to)

	prefix := b.lines[from.Line][:from.Column]
	suffix := b.lines[to.Line][to.Column:]

	replacement := make([]string, len(inserted))
	copy(replacement, inserted)
	replacement[0] = prefix + replacement[0]
	replacement[len(replacement)-1] += suffix

	tail := b.lines[to.Line+1:]
	lines := make([]string, 0, from.Line+len(replacement)+len(tail))
	lines = append(lines, b.lines[:from.Line]...)
	lines = append(lines, replacement...)
	lines = append(lines, tail...)
	b.lines = lines
	b.revision++

	return Change{
		From:    from,
		To:      to,
		Text:    inserted,
		Removed: removed,
		TailLen: len(suffix),
	}, nil
}

func (b *Buffer) sliceLocked(from, to Point) []string {
	if from.Line == to.Line {
		return []string{b.lines[from.Line][from.Column:to.Column]}
	}
	out := make([]string, 0, to.Line-from.Line+1)
	out = append(out, b.lines[from.Line][from.Column:])
	out = append(out, b.lines[from.Line+1:to.Line]...)
	out = append(out, b.lines[to.Line][:to.Column])
	return out
}

// Observers

// Subscribe registers an observer. Observers are called in subscription order.
func (b *Buffer) Subscribe(obs Observer) *Subscription {
	b.obsMu.Lock()
	defer b.obsMu.Unlock()

	b.nextSubID++
	sub := &Subscription{id: b.nextSubID, buf: b, observer: obs}
	b.observers = append(b.observers, sub)
	return sub
}

func (b *Buffer) unsubscribe(id uint64) {
	b.obsMu.Lock()
	defer b.obsMu.Unlock()

	for i, sub := range b.observers {
		if sub.id == id {
			b.observers = append(b.observers[:i:i], b.observers[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of registered observers.
func (b *Buffer) ObserverCount() int {
	b.obsMu.Lock()
	defer b.obsMu.Unlock()
	return len(b.observers)
}

// notify delivers changes to a snapshot of the observer list. Observers
// cancelled during the fan-out are skipped.
func (b *Buffer) notify(changes ChangeList) {
	b.obsMu.Lock()
	subs := append([]*Subscription(nil), b.observers...)
	b.obsMu.Unlock()

	for _, sub := range subs {
		if !sub.Active() {
			continue
		}
		sub.observer(b, changes)
	}
}

// Reference counting

// AddRef records a new holder of the buffer.
func (b *Buffer) AddRef() {
	b.refs.Add(1)
}

// ReleaseRef drops a holder of the buffer. Extra releases are ignored.
func (b *Buffer) ReleaseRef() {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return
		}
		if b.refs.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// RefCount returns the number of holders.
func (b *Buffer) RefCount() int {
	return int(b.refs.Load())
}

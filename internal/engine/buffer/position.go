package buffer

import "fmt"

// Point represents a line and column position.
// Both Line and Column are 0-indexed; Column is a byte offset within the line.
type Point struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p is before other, 1 if after, 0 if equal.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	default:
		return 0
	}
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// LineSpan is an inclusive range of line indexes.
type LineSpan struct {
	Start int
	End   int
}

// String returns a human-readable representation of the span.
func (s LineSpan) String() string {
	return fmt.Sprintf("[%d..%d]", s.Start, s.End)
}

// Len returns the number of lines in the span.
func (s LineSpan) Len() int {
	return s.End - s.Start + 1
}

// Contains returns true if line lies within the span.
func (s LineSpan) Contains(line int) bool {
	return line >= s.Start && line <= s.End
}

// Overlaps returns true if the two spans share at least one line.
func (s LineSpan) Overlaps(other LineSpan) bool {
	return s.Start <= other.End && other.Start <= s.End
}

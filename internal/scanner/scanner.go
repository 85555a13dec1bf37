// Package scanner locates markup comment blocks in a line buffer.
package scanner

import (
	"iter"
	"regexp"
	"strings"
)

// Default delimiter patterns.
const (
	DefaultOpenPattern  = `^\s*/\*\*`
	DefaultClosePattern = `\*/`
)

// Lines is the read side of a line buffer.
type Lines interface {
	LineCount() int
	LineText(line int) string
}

// Block is an inclusive, 0-indexed line span holding one markup comment.
type Block struct {
	StartLine int
	EndLine   int
}

// Scanner finds blocks that start at a line matching the open pattern and
// end at the next later line matching the close pattern.
type Scanner struct {
	open  *regexp.Regexp
	close *regexp.Regexp
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDelimiters overrides the open and close patterns.
func WithDelimiters(open, close *regexp.Regexp) Option {
	return func(s *Scanner) {
		if open != nil {
			s.open = open
		}
		if close != nil {
			s.close = close
		}
	}
}

// New creates a Scanner using the default delimiters unless overridden.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		open:  regexp.MustCompile(DefaultOpenPattern),
		close: regexp.MustCompile(DefaultClosePattern),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile builds a Scanner from pattern strings.
func Compile(open, close string) (*Scanner, error) {
	o, err := regexp.Compile(open)
	if err != nil {
		return nil, err
	}
	c, err := regexp.Compile(close)
	if err != nil {
		return nil, err
	}
	return New(WithDelimiters(o, c)), nil
}

// Scan returns the blocks of buf in document order. The sequence is lazy and
// can be ranged over again; each iteration rescans the buffer. An open
// delimiter without a matching close yields nothing.
func (s *Scanner) Scan(buf Lines) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		start := -1
		for i := 0; i < buf.LineCount(); i++ {
			text := buf.LineText(i)
			if start < 0 {
				if s.open.MatchString(text) {
					start = i
				}
				continue
			}
			if s.close.MatchString(text) {
				if !yield(Block{StartLine: start, EndLine: i}) {
					return
				}
				start = -1
			}
		}
	}
}

// Blocks collects Scan into a slice.
func (s *Scanner) Blocks(buf Lines) []Block {
	var out []Block
	for b := range s.Scan(buf) {
		out = append(out, b)
	}
	return out
}

// BlockAt returns the block containing line, if any.
func (s *Scanner) BlockAt(buf Lines, line int) (Block, bool) {
	for b := range s.Scan(buf) {
		if b.StartLine > line {
			break
		}
		if line <= b.EndLine {
			return b, true
		}
	}
	return Block{}, false
}

// IsOpen reports whether text starts a block.
func (s *Scanner) IsOpen(text string) bool {
	return s.open.MatchString(text)
}

// IsClose reports whether text ends a block.
func (s *Scanner) IsClose(text string) bool {
	return s.close.MatchString(text)
}

// Body joins lines with a trailing newline each, removes the open delimiter
// from the start and cuts everything from the first close delimiter to the
// end of its line.
func (s *Scanner) Body(lines []string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	src := sb.String()

	if loc := s.open.FindStringIndex(src); loc != nil && loc[0] == 0 {
		src = src[loc[1]:]
	}
	if loc := s.close.FindStringIndex(src); loc != nil {
		end := strings.IndexByte(src[loc[0]:], '\n')
		if end < 0 {
			src = src[:loc[0]]
		} else {
			src = src[:loc[0]] + src[loc[0]+end:]
		}
	}
	return src
}

package buffer

import "strings"

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithLineEnding sets the line ending used by Text.
func WithLineEnding(le LineEnding) Option {
	return func(b *Buffer) {
		b.lineEnding = le
	}
}

// WithName sets the display name of the buffer.
func WithName(name string) Option {
	return func(b *Buffer) {
		b.name = name
	}
}

// DetectLineEnding reports the line ending used by most lines of text,
// LineEndingLF when it has none.
func DetectLineEnding(text string) LineEnding {
	crlf := strings.Count(text, "\r\n")
	if lf := strings.Count(text, "\n") - crlf; crlf > lf {
		return LineEndingCRLF
	}
	return LineEndingLF
}

// WithDetectedLineEnding sets the line ending from the text a buffer is
// loaded from.
func WithDetectedLineEnding(text string) Option {
	return WithLineEnding(DetectLineEnding(text))
}

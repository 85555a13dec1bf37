package router

import "errors"

var (
	// ErrNoDocument is returned when an operation needs an active document.
	ErrNoDocument = errors.New("no active document")

	// ErrNilSurface is returned when a document has no surface.
	ErrNilSurface = errors.New("document has no surface")

	// ErrNotComment is returned by ProvideEditor for a line outside a
	// comment.
	ErrNotComment = errors.New("line is not a comment")

	// ErrUnsupportedLanguage is returned by ProvideEditor when no lexer
	// matches the document name.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("router closed")
)

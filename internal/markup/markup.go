// Package markup converts the body of a markup comment into an HTML
// fragment for display.
package markup

import (
	"fmt"
	"io"
)

// Renderer kinds accepted by New.
const (
	KindMarkdown = "markdown"
	KindLua      = "lua"
)

// Renderer converts markup source into an HTML fragment. Render must not
// fail: malformed input is rendered as well as possible.
type Renderer interface {
	Render(raw string) string
}

// Converter is a conversion that can fail.
type Converter interface {
	Convert(raw string) (string, error)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(raw string) string

// Render calls f(raw).
func (f RenderFunc) Render(raw string) string { return f(raw) }

// Logger receives conversion failures.
type Logger interface {
	Warn(msg string, args ...any)
}

type safe struct {
	conv   Converter
	logger Logger
}

// Safe wraps c so that errors and panics produce an empty fragment.
func Safe(c Converter, logger Logger) Renderer {
	return &safe{conv: c, logger: logger}
}

func (s *safe) Render(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.warn("render panic: %v", r)
			out = ""
		}
	}()
	html, err := s.conv.Convert(raw)
	if err != nil {
		s.warn("render failed: %v", err)
		return ""
	}
	return html
}

func (s *safe) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// Close closes the wrapped converter if it holds resources.
func (s *safe) Close() error {
	if c, ok := s.conv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// New builds the renderer for kind. Lua renderers load script, which must
// define a global render function. The result may implement io.Closer.
func New(kind, script string, logger Logger) (Renderer, error) {
	switch kind {
	case "", KindMarkdown:
		return Safe(NewMarkdown(), logger), nil
	case KindLua:
		l, err := NewLua(script)
		if err != nil {
			return nil, err
		}
		return Safe(l, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

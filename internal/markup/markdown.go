package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders CommonMark with GitHub extensions. It is stateless
// apart from its parser configuration and safe for concurrent use.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithXHTML()),
		),
	}
}

// Convert renders raw to HTML.
func (m *Markdown) Convert(raw string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(raw), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render renders raw to HTML, returning an empty fragment on failure.
func (m *Markdown) Render(raw string) string {
	out, _ := m.Convert(raw)
	return out
}

package layout

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"golang.org/x/net/html"
)

// Measurer lays out node content at a fixed width.
type Measurer struct {
	width    int
	tabs     *TabExpander
	detached bool
}

// MeasurerOption configures a Measurer.
type MeasurerOption func(*Measurer)

// WithTabWidth sets the tab width used when expanding text.
func WithTabWidth(w int) MeasurerOption {
	return func(m *Measurer) { m.tabs = NewTabExpander(w) }
}

// WithDetachedMeasurement lets Height succeed for nodes outside a live tree.
func WithDetachedMeasurement() MeasurerOption {
	return func(m *Measurer) { m.detached = true }
}

// NewMeasurer creates a measurer wrapping text at width cells.
func NewMeasurer(width int, opts ...MeasurerOption) *Measurer {
	if width < 1 {
		width = 1
	}
	m := &Measurer{width: width, tabs: DefaultTabExpander()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Width returns the wrap width.
func (m *Measurer) Width() int { return m.width }

// SetWidth changes the wrap width.
func (m *Measurer) SetWidth(w int) {
	if w > 0 {
		m.width = w
	}
}

// MeasuresDetached reports whether nodes outside a live tree can be measured.
func (m *Measurer) MeasuresDetached() bool { return m.detached }

// Measure returns the height of n in rows. ok is false when n is not part of
// a live tree and the measurer cannot size detached nodes.
func (m *Measurer) Measure(n *Node) (height int, ok bool) {
	if n == nil {
		return 0, false
	}
	if !m.detached && !n.Attached() {
		return 0, false
	}
	return m.height(n), true
}

func (m *Measurer) height(n *Node) int {
	if n.hidden {
		return 0
	}
	if n.rows != nil {
		return len(n.rows(m.width))
	}
	h := len(m.wrapHTML(n.html))
	for _, c := range n.children {
		h += m.height(c)
	}
	return h
}

// Lines returns the display rows of n and its visible descendants.
func (m *Measurer) Lines(n *Node) []string {
	if n == nil || n.hidden {
		return nil
	}
	if n.rows != nil {
		return n.rows(m.width)
	}
	out := m.wrapHTML(n.html)
	for _, c := range n.children {
		out = append(out, m.Lines(c)...)
	}
	return out
}

// Wrap breaks text into rows no wider than the measurer width.
func (m *Measurer) Wrap(text string) []string {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = m.tabs.ExpandTabs(line)
		if runewidth.StringWidth(line) <= m.width {
			rows = append(rows, line)
			continue
		}
		wrapped := wrap.String(wordwrap.String(line, m.width), m.width)
		for _, r := range strings.Split(wrapped, "\n") {
			rows = append(rows, strings.TrimRight(r, " "))
		}
	}
	return rows
}

func (m *Measurer) wrapHTML(fragment string) []string {
	text := HTMLText(fragment)
	if text == "" {
		return nil
	}
	return m.Wrap(text)
}

var blockTags = map[string]bool{
	"p": true, "div": true, "ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "blockquote": true, "table": true, "tr": true, "hr": true,
}

// HTMLText converts an HTML fragment into display text. Block elements start
// new lines, list items get a bullet, and whitespace is collapsed outside pre.
func HTMLText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	pre := 0
	atLineStart := true

	newline := func() {
		if !atLineStart {
			sb.WriteByte('\n')
			atLineStart = true
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.TrimSpace(sb.String())
			}
			return tidyLines(sb.String())
		case html.TextToken:
			text := string(z.Text())
			if pre > 0 {
				sb.WriteString(text)
				atLineStart = strings.HasSuffix(text, "\n")
				continue
			}
			text = strings.Join(strings.Fields(text), " ")
			if text == "" {
				continue
			}
			if !atLineStart && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
			atLineStart = false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "br":
				sb.WriteByte('\n')
				atLineStart = true
			case tag == "hr":
				newline()
				sb.WriteString("────────\n")
			case tag == "li":
				newline()
				sb.WriteString("• ")
			case tag == "pre":
				newline()
				pre++
			case blockTags[tag]:
				newline()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "pre" && pre > 0 {
				pre--
			}
			if blockTags[tag] {
				newline()
				if tag == "p" || strings.HasPrefix(tag, "h") || tag == "pre" {
					sb.WriteByte('\n')
				}
			}
		}
	}
}

// tidyLines trims trailing spaces, collapses runs of blank lines and drops
// blank lines at both ends.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// Place assigns bounds to n and its descendants, stacking children below
// the node's own content starting at top. It returns the row below n.
func (m *Measurer) Place(n *Node, left, top, right int) int {
	if n == nil {
		return top
	}
	if n.hidden {
		n.bounds = Rect{Left: left, Top: top, Right: right, Bottom: top}
		return top
	}
	y := top
	if n.rows != nil {
		y += len(n.rows(m.width))
	} else {
		y += len(m.wrapHTML(n.html))
	}
	for _, c := range n.children {
		y = m.Place(c, left, y, right)
	}
	n.bounds = Rect{Left: left, Top: top, Right: right, Bottom: y}
	return y
}

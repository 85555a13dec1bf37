package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(msg, args...))
}

func TestMarkdownRender(t *testing.T) {
	md := NewMarkdown()
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"heading", "\n# Title\n\n", []string{"<h1>Title</h1>"}},
		{"list", "- One\n- Two\n", []string{"<li>One</li>", "<li>Two</li>"}},
		{"emphasis", "_italics_ and __bold__", []string{"<em>italics</em>", "<strong>bold</strong>"}},
		{"code block", "    def function\n", []string{"<pre><code>def function"}},
		{"strikethrough", "~~gone~~", []string{"<del>gone</del>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := md.Render(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render(%q) = %q, missing %q", tt.in, got, w)
				}
			}
		})
	}
}

func TestMarkdownRenderAcceptsAnyInput(t *testing.T) {
	md := NewMarkdown()
	for _, in := range []string{"", "\n\n", "* [unterminated", "<div>", "```\nopen fence"} {
		first := md.Render(in)
		if second := md.Render(in); first != second {
			t.Errorf("Render(%q) not deterministic: %q vs %q", in, first, second)
		}
	}
	if got := md.Render(""); got != "" {
		t.Errorf("Render(\"\") = %q", got)
	}
}

func TestLuaRender(t *testing.T) {
	l, err := NewLua(`function render(text) return "<pre>" .. string.upper(text) .. "</pre>" end`)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	got, err := l.Convert("abc")
	if err != nil {
		t.Fatal(err)
	}
	if got != "<pre>ABC</pre>" {
		t.Errorf("Convert = %q", got)
	}
	if top := l.L.GetTop(); top != 0 {
		t.Errorf("stack top = %d after call", top)
	}
}

func TestLuaErrors(t *testing.T) {
	if _, err := NewLua(`x = 1`); !errors.Is(err, ErrNoRenderFunction) {
		t.Errorf("missing render err = %v", err)
	}
	if _, err := NewLua(`function render(`); err == nil {
		t.Error("syntax error not reported")
	}
	if _, err := NewLua(`dofile("x.lua") function render(t) return t end`); err == nil {
		t.Error("dofile available to scripts")
	}

	l, err := NewLua(`function render(text) return 42 end`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Convert("x"); !errors.Is(err, ErrBadResult) {
		t.Errorf("bad result err = %v", err)
	}
	l.Close()
	if _, err := l.Convert("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("closed err = %v", err)
	}
}

type panicky struct{}

func (panicky) Convert(string) (string, error) { panic("boom") }

type failing struct{}

func (failing) Convert(string) (string, error) { return "partial", errors.New("bad") }

func TestSafeNeverFails(t *testing.T) {
	log := &recordingLogger{}
	if got := Safe(panicky{}, log).Render("x"); got != "" {
		t.Errorf("panicking converter rendered %q", got)
	}
	if got := Safe(failing{}, log).Render("x"); got != "" {
		t.Errorf("failing converter rendered %q", got)
	}
	if len(log.warnings) != 2 {
		t.Errorf("warnings = %v", log.warnings)
	}
	if got := Safe(failing{}, nil).Render("x"); got != "" {
		t.Errorf("nil logger rendered %q", got)
	}
}

func TestNew(t *testing.T) {
	r, err := New("", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(r.Render("# x"), "<h1>") {
		t.Error("default renderer is not markdown")
	}

	r, err = New(KindLua, `function render(t) return t end`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Render("same"); got != "same" {
		t.Errorf("lua Render = %q", got)
	}
	if c, ok := r.(io.Closer); !ok || c.Close() != nil {
		t.Error("lua renderer not closable")
	}

	if _, err := New("asciidoc", "", nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind err = %v", err)
	}
}

func TestRenderFunc(t *testing.T) {
	var r Renderer = RenderFunc(strings.ToUpper)
	if got := r.Render("a"); got != "A" {
		t.Errorf("Render = %q", got)
	}
}

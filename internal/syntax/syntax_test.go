package syntax

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type lines []string

func (l lines) LineCount() int        { return len(l) }
func (l lines) LineText(i int) string { return l[i] }

func TestClassifyGo(t *testing.T) {
	src := lines{
		"package main",
		"",
		"/**",
		"# Title",
		" ",
		"*/",
		"func main() {} // trailing",
		"x := 1",
	}
	c := ForLanguage("go")
	got, err := c.Classify(src)
	if err != nil {
		t.Fatal(err)
	}
	want := []bool{false, false, true, true, true, true, true, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify (-want +got):\n%s", diff)
	}
}

func TestClassifyJavaScript(t *testing.T) {
	c, ok := ForFilename("main.js")
	if !ok {
		t.Fatal("no lexer for main.js")
	}
	src := lines{
		"/**",
		" * docs",
		" */",
		"var x = 1;",
	}
	for i, want := range []bool{true, true, true, false} {
		if got := c.IsCommentLine(src, i); got != want {
			t.Errorf("IsCommentLine(%d) = %v, want %v", i, got, want)
		}
	}
	if c.IsCommentLine(src, 10) {
		t.Error("out of range line classified as comment")
	}
}

func TestSupported(t *testing.T) {
	if !Supported("main.go") {
		t.Error("main.go unsupported")
	}
	if Supported("notes.nosuchextension") {
		t.Error("unknown extension supported")
	}
	if _, ok := ForFilename("notes.nosuchextension"); ok {
		t.Error("ForFilename matched unknown extension")
	}
	if got := ForLanguage("no-such-language").Language(); got != "Go" {
		t.Errorf("fallback language = %q", got)
	}
}

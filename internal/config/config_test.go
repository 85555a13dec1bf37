package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jpkraemer/markdown-brackets/internal/markup"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func (m memFS) Stat(path string) (fs.FileInfo, error) { return nil, fs.ErrNotExist }

func env(kv ...string) func() []string {
	return func() []string { return kv }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithFS(memFS{}), WithFile("/missing.toml"), WithEnviron(nil))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadLayers(t *testing.T) {
	files := memFS{"/mdpreview.toml": `
[renderer]
kind = "lua"
luaScript = "render.lua"

[view]
tabWidth = 2
gutterWidth = 3

[logging]
level = "warn"
`}
	cfg, err := Load(
		WithFS(files),
		WithFile("/mdpreview.toml"),
		WithEnviron(env("MDPREVIEW_TAB_WIDTH=8", "MDPREVIEW_LOG_LEVEL=debug", "PATH=/bin")),
	)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Renderer = RendererConfig{Kind: "lua", LuaScript: "render.lua"}
	want.View.TabWidth = 8
	want.View.GutterWidth = 3
	want.Logging.Level = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		environ []string
		want    error
	}{
		{"unknown key", "[view]\nfontSize = 3\n", nil, ErrUnknownSetting},
		{"wrong type", "", []string{"MDPREVIEW_TAB_WIDTH=wide"}, ErrInvalidValue},
		{"unknown renderer", "[renderer]\nkind = \"html\"\n", nil, ErrInvalidValue},
		{"lua without script", "[renderer]\nkind = \"lua\"\n", nil, ErrInvalidValue},
		{"bad pattern", "[blocks]\nopen = \"(\"\n", nil, ErrInvalidValue},
		{"tab width", "[view]\ntabWidth = 0\n", nil, ErrInvalidValue},
		{"log level", "[logging]\nlevel = \"loud\"\n", nil, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(
				WithFS(memFS{"/c.toml": tt.file}),
				WithFile("/c.toml"),
				WithEnviron(env(tt.environ...)),
			)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestScannerUsesDelimiters(t *testing.T) {
	cfg := Default()
	cfg.Blocks = BlocksConfig{Open: `^<!--md`, Close: `-->`}
	s, err := cfg.Scanner()
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsOpen("<!--md") || s.IsOpen("/**") || !s.IsClose("-->") {
		t.Error("scanner ignores configured delimiters")
	}
}

func TestNewRenderer(t *testing.T) {
	cfg := Default()
	r, err := cfg.NewRenderer(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Render("# Hi"); got != "<h1>Hi</h1>\n" {
		t.Errorf("markdown Render = %q", got)
	}

	script := filepath.Join(t.TempDir(), "render.lua")
	if err := os.WriteFile(script, []byte(`function render(s) return "<pre>" .. s .. "</pre>" end`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Renderer = RendererConfig{Kind: markup.KindLua, LuaScript: script}
	r, err = cfg.NewRenderer(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Render("x"); got != "<pre>x</pre>" {
		t.Errorf("lua Render = %q", got)
	}

	cfg.Renderer.LuaScript = filepath.Join(t.TempDir(), "missing.lua")
	if _, err := cfg.NewRenderer(nil); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing script err = %v", err)
	}
}

func TestSurfaceOptions(t *testing.T) {
	cfg := Default()
	if n := len(cfg.SurfaceOptions()); n != 2 {
		t.Errorf("options = %d, want 2", n)
	}
	cfg.View.DetachedMeasurement = true
	if n := len(cfg.SurfaceOptions()); n != 3 {
		t.Errorf("options = %d, want 3", n)
	}
}

func TestDefaultPath(t *testing.T) {
	if p := DefaultPath(); p != "" && !strings.HasSuffix(p, filepath.Join("mdpreview", FileName)) {
		t.Errorf("DefaultPath = %q", p)
	}
}

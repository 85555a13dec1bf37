package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jpkraemer/markdown-brackets/internal/config/loader"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/markup"
	"github.com/jpkraemer/markdown-brackets/internal/scanner"
)

// FileName is the name of the configuration file.
const FileName = "mdpreview.toml"

// Config is the complete configuration.
type Config struct {
	Renderer RendererConfig `toml:"renderer"`
	Blocks   BlocksConfig   `toml:"blocks"`
	View     ViewConfig     `toml:"view"`
	Logging  LoggingConfig  `toml:"logging"`
}

// RendererConfig selects the render function.
type RendererConfig struct {
	// Kind is "markdown" or "lua".
	Kind string `toml:"kind"`
	// LuaScript is the script file for the lua kind.
	LuaScript string `toml:"luaScript"`
}

// BlocksConfig holds the block delimiter patterns.
type BlocksConfig struct {
	Open  string `toml:"open"`
	Close string `toml:"close"`
}

// ViewConfig configures the host surface.
type ViewConfig struct {
	TabWidth    int `toml:"tabWidth"`
	GutterWidth int `toml:"gutterWidth"`
	// DetachedMeasurement measures preview content directly instead of
	// through a mirror node.
	DetachedMeasurement bool `toml:"detachedMeasurement"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
	// File receives log output. Empty disables logging.
	File string `toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Renderer: RendererConfig{Kind: markup.KindMarkdown},
		Blocks: BlocksConfig{
			Open:  scanner.DefaultOpenPattern,
			Close: scanner.DefaultClosePattern,
		},
		View: ViewConfig{
			TabWidth:    host.DefaultTabWidth,
			GutterWidth: host.DefaultGutterWidth,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

type options struct {
	path    string
	fs      loader.FileSystem
	environ func() []string
}

// Option configures Load.
type Option func(*options)

// WithFile reads path instead of the default file.
func WithFile(path string) Option {
	return func(o *options) { o.path = path }
}

// WithFS reads files through fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

// WithEnviron reads environment variables from environ. A nil function
// disables the environment layer.
func WithEnviron(environ func() []string) Option {
	return func(o *options) { o.environ = environ }
}

// DefaultPath returns the default file location, or "" when the user
// config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mdpreview", FileName)
}

// Load merges the file and environment layers over Default and validates
// the result.
func Load(opts ...Option) (Config, error) {
	o := options{path: DefaultPath(), fs: loader.DefaultFS(), environ: os.Environ}
	for _, opt := range opts {
		opt(&o)
	}

	var sources []loader.Loader
	if o.path != "" {
		sources = append(sources, loader.NewTOMLLoaderWithFS(o.fs, o.path))
	}
	if o.environ != nil {
		sources = append(sources, loader.NewEnvLoaderFrom(loader.EnvPrefix, o.environ))
	}
	merged := map[string]any{}
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg, err := decode(merged)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode applies a settings map over Default.
func decode(m map[string]any) (Config, error) {
	cfg := Default()
	if len(m) == 0 {
		return cfg, nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("encode settings: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrUnknownSetting, strings.TrimSpace(strict.String()))
		}
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return cfg, nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks every setting.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, args...)...))
	}

	switch c.Renderer.Kind {
	case markup.KindMarkdown:
	case markup.KindLua:
		if c.Renderer.LuaScript == "" {
			invalid("renderer.luaScript is required for the lua renderer")
		}
	default:
		invalid("renderer.kind %q", c.Renderer.Kind)
	}
	if _, err := regexp.Compile(c.Blocks.Open); err != nil || c.Blocks.Open == "" {
		invalid("blocks.open %q", c.Blocks.Open)
	}
	if _, err := regexp.Compile(c.Blocks.Close); err != nil || c.Blocks.Close == "" {
		invalid("blocks.close %q", c.Blocks.Close)
	}
	if c.View.TabWidth < 1 || c.View.TabWidth > 16 {
		invalid("view.tabWidth %d", c.View.TabWidth)
	}
	if c.View.GutterWidth < 0 {
		invalid("view.gutterWidth %d", c.View.GutterWidth)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) {
		invalid("logging.level %q", c.Logging.Level)
	}
	return errors.Join(errs...)
}

// Scanner builds the block scanner.
func (c Config) Scanner() (*scanner.Scanner, error) {
	s, err := scanner.Compile(c.Blocks.Open, c.Blocks.Close)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return s, nil
}

// NewRenderer builds the render function. Lua scripts are read from disk.
func (c Config) NewRenderer(logger markup.Logger) (markup.Renderer, error) {
	var script string
	if c.Renderer.Kind == markup.KindLua {
		src, err := os.ReadFile(expandHome(c.Renderer.LuaScript))
		if err != nil {
			return nil, fmt.Errorf("lua renderer: %w", err)
		}
		script = string(src)
	}
	return markup.New(c.Renderer.Kind, script, logger)
}

// SurfaceOptions returns the host options for c.
func (c Config) SurfaceOptions() []host.Option {
	opts := []host.Option{
		host.WithTabWidth(c.View.TabWidth),
		host.WithGutterWidth(c.View.GutterWidth),
	}
	if c.View.DetachedMeasurement {
		opts = append(opts, host.WithDetachedMeasurement())
	}
	return opts
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

package loader

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "MDPREVIEW_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string
	lookup  func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix. The
// prefix includes the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderFrom(prefix, os.Environ)
}

// NewEnvLoaderFrom is NewEnvLoader reading "KEY=value" pairs from environ.
func NewEnvLoaderFrom(prefix string, environ func() []string) *EnvLoader {
	return &EnvLoader{prefix: prefix, mapping: defaultEnvMapping(prefix), lookup: environ}
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":     "logging.level",
		prefix + "LOG_FILE":      "logging.file",
		prefix + "RENDERER":      "renderer.kind",
		prefix + "LUA_SCRIPT":    "renderer.luaScript",
		prefix + "OPEN_PATTERN":  "blocks.open",
		prefix + "CLOSE_PATTERN": "blocks.close",
		prefix + "TAB_WIDTH":     "view.tabWidth",
		prefix + "GUTTER_WIDTH":  "view.gutterWidth",
	}
}

// AddMapping maps an environment variable to a dotted config path.
func (l *EnvLoader) AddMapping(env, path string) {
	l.mapping[env] = path
}

// Load reads the environment. Mapped variables go to their path; other
// prefixed variables are converted, so MDPREVIEW_VIEW_TAB_WIDTH becomes
// view.tabWidth.
func (l *EnvLoader) Load() (map[string]any, error) {
	out := make(map[string]any)
	for _, kv := range l.lookup() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path != "" {
			setByPath(out, path, parseValue(value))
		}
	}
	return out, nil
}

func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	if len(parts) < 2 || parts[0] == "" {
		return ""
	}
	name := strings.ToLower(parts[1])
	for _, p := range parts[2:] {
		if p != "" {
			name += strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
		}
	}
	return strings.ToLower(parts[0]) + "." + name
}

func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}

func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := data
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

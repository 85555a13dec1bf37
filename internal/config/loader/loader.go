// Package loader reads configuration sources into nested maps.
//
// Sources are TOML files and MDPREVIEW_* environment variables. Each
// loader returns a map[string]any keyed by section; maps from several
// sources are combined with DeepMerge.
package loader

import (
	"io/fs"
	"os"
)

// Loader reads configuration from one source. Load returns nil, nil when
// the source does not exist.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem is the file access used by file loaders.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile reads the file at path.
func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem { return OSFS{} }

// DeepMerge merges src into dst and returns dst. Values in src win; nested
// maps are merged recursively.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}

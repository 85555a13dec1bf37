// Package config holds the typed configuration of mdpreview.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults (Default)
//  2. a TOML file, by default mdpreview.toml in the user config directory
//  3. MDPREVIEW_* environment variables
//
// A minimal file:
//
//	[renderer]
//	kind = "lua"
//	luaScript = "~/.config/mdpreview/render.lua"
//
//	[blocks]
//	open = '^\s*/\*\*'
//	close = '\*/'
//
//	[view]
//	tabWidth = 4
package config

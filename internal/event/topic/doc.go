// Package topic provides dot-separated event topics and wildcard matching.
//
// Topics name events hierarchically:
//
//	document.active
//	preview.opened
//
// Patterns may use "*" for exactly one segment and "**" for zero or more:
//
//	document.*    matches document.active, document.closed
//	preview.**    matches preview.opened, preview.editor.closed
//	**            matches everything
package topic

// Package renderer paints a host surface onto a terminal backend.
//
// Each frame draws the surface's display rows: source lines with a line
// number gutter, inline widget rows inset to the text column, and a status
// line at the bottom. Comment lines are styled using the syntax
// classifier when one is set. The cursor is shown only while an inline
// editor has focus.
//
// Usage:
//
//	b, _ := backend.NewTerminal()
//	_ = b.Init()
//	r := renderer.New(b)
//	r.SetSurface(surface, syntax.ForLanguage("go"))
//	r.Render()
package renderer

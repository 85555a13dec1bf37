// Package core provides the cell and style types shared by the painter and
// its backends.
package core

import "github.com/mattn/go-runewidth"

// Attribute is a set of text attributes.
type Attribute uint16

// Text attribute flags.
const (
	AttrNone      Attribute = 0
	AttrBold      Attribute = 1 << iota
	AttrDim                 // faint text
	AttrItalic              // italic text
	AttrUnderline           // underlined text
	AttrReverse             // swapped foreground and background
)

// Has reports whether a contains attr.
func (a Attribute) Has(attr Attribute) bool { return a&attr != 0 }

// Color is a terminal color: the default color, a palette index or RGB.
type Color struct {
	R, G, B uint8
	// Indexed selects palette entry R.
	Indexed bool
	// Default selects the terminal's default color.
	Default bool
}

// ColorDefault is the terminal's default color.
var ColorDefault = Color{Default: true}

// ColorFromRGB creates a true color.
func ColorFromRGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b} }

// ColorFromIndex creates a palette color.
func ColorFromIndex(index uint8) Color { return Color{R: index, Indexed: true} }

// IsDefault reports whether c is the default color.
func (c Color) IsDefault() bool { return c.Default }

// Style is the visual style of a cell.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the terminal's default style.
func DefaultStyle() Style {
	return Style{Foreground: ColorDefault, Background: ColorDefault}
}

// WithForeground returns s with foreground fg.
func (s Style) WithForeground(fg Color) Style {
	s.Foreground = fg
	return s
}

// WithBackground returns s with background bg.
func (s Style) WithBackground(bg Color) Style {
	s.Background = bg
	return s
}

// With returns s with attrs added.
func (s Style) With(attrs Attribute) Style {
	s.Attributes |= attrs
	return s
}

// Cell is one terminal cell.
type Cell struct {
	Rune  rune
	Width int
	Style Style
}

// EmptyCell returns a blank cell in the default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// NewStyledCell creates a cell for r.
func NewStyledCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: RuneWidth(r), Style: style}
}

// RuneWidth returns the number of cells r occupies.
func RuneWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// ScreenRect is a screen rectangle; Right and Bottom are exclusive.
type ScreenRect struct {
	Top, Left, Bottom, Right int
}

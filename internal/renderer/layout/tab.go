package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// TabExpander converts between byte offsets and display columns, expanding
// tabs to the next tab stop and counting wide runes as two cells.
type TabExpander struct {
	tabWidth int
}

// NewTabExpander creates a tab expander with the given tab width.
func NewTabExpander(tabWidth int) *TabExpander {
	if tabWidth < 1 {
		tabWidth = 4
	}
	return &TabExpander{tabWidth: tabWidth}
}

// TabWidth returns the current tab width.
func (t *TabExpander) TabWidth() int {
	return t.tabWidth
}

// NextTabStop returns the next tab stop column after the given column.
func (t *TabExpander) NextTabStop(col int) int {
	return col + t.tabWidth - (col % t.tabWidth)
}

// ExpandTabs returns s with tabs replaced by spaces.
func (t *TabExpander) ExpandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			next := t.NextTabStop(col)
			sb.WriteString(strings.Repeat(" ", next-col))
			col = next
			continue
		}
		sb.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return sb.String()
}

// OffsetToColumn converts a byte offset to a display column.
func (t *TabExpander) OffsetToColumn(s string, byteOffset int) int {
	col := 0
	offset := 0
	for _, r := range s {
		if offset >= byteOffset {
			return col
		}
		if r == '\t' {
			col = t.NextTabStop(col)
		} else {
			col += runewidth.RuneWidth(r)
		}
		offset += utf8.RuneLen(r)
	}
	return col
}

// ColumnToOffset converts a display column to a byte offset, clamping to
// the end of s.
func (t *TabExpander) ColumnToOffset(s string, visualCol int) int {
	col := 0
	offset := 0
	for _, r := range s {
		next := col + runewidth.RuneWidth(r)
		if r == '\t' {
			next = t.NextTabStop(col)
		}
		if visualCol < next {
			return offset
		}
		col = next
		offset += utf8.RuneLen(r)
	}
	return offset
}

// DefaultTabExpander returns a tab expander with the default tab width of 4.
func DefaultTabExpander() *TabExpander {
	return NewTabExpander(4)
}

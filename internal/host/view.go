package host

import (
	"github.com/jpkraemer/markdown-brackets/internal/renderer/layout"
)

// RowKind distinguishes source rows from widget rows.
type RowKind int

const (
	// LineRow displays a source line.
	LineRow RowKind = iota
	// WidgetRow displays one row of an inline widget.
	WidgetRow
)

// Row is one display row of the surface.
type Row struct {
	Kind RowKind
	// Line is the source line, or the anchor line for widget rows.
	Line int
	// Text is the source text or the widget's rendered row.
	Text string
	// Widget is set for widget rows.
	Widget InlineWidget
	// Offset is the row index within the widget.
	Offset int
}

// entry is a display row in document space.
type entry struct {
	line   int
	slot   *slot
	offset int
}

// docRows lays out the whole document. Widgets anchored at a hidden line
// follow the nearest visible line above it, after that line's own widgets.
func (s *Surface) docRows() ([]entry, map[*slot]int) {
	bySlot := make(map[int][]*slot)
	for _, sl := range s.orderedSlots() {
		bySlot[sl.line] = append(bySlot[sl.line], sl)
	}
	tops := make(map[*slot]int, len(s.slots))
	var rows []entry
	count := s.buf.LineCount()
	for line := 0; line < count; line++ {
		if !s.IsLineHidden(line) {
			rows = append(rows, entry{line: line})
		}
		for _, sl := range bySlot[line] {
			tops[sl] = len(rows)
			for i := 0; i < sl.height; i++ {
				rows = append(rows, entry{line: line, slot: sl, offset: i})
			}
		}
	}
	return rows, tops
}

// ContentHeight returns the number of display rows in the document.
func (s *Surface) ContentHeight() int {
	rows, _ := s.docRows()
	return len(rows)
}

// Root returns the live root the on-tree widgets are attached to.
func (s *Surface) Root() *layout.Node { return s.root }

// MeasureLayer returns an always-attached, never-painted root for nodes
// that must stay measurable.
func (s *Surface) MeasureLayer() *layout.Node { return s.measureLayer }

// Measurer returns the surface's measurer.
func (s *Surface) Measurer() *layout.Measurer { return s.measurer }

// Measure returns the height of n. ok is false when the layout cannot size
// n, which is the case for nodes outside the live tree.
func (s *Surface) Measure(n *layout.Node) (int, bool) {
	return s.measurer.Measure(n)
}

// MeasuresDetached reports whether Measure works for detached nodes.
func (s *Surface) MeasuresDetached() bool { return s.measurer.MeasuresDetached() }

// Refresh runs a layout pass. Widgets whose rows intersect the viewport
// are attached to the live root and receive bounds; the rest are detached.
func (s *Surface) Refresh() {
	if s.closed {
		return
	}
	s.clampScroll()
	_, tops := s.docRows()
	for _, sl := range s.slots {
		top, shown := tops[sl]
		if shown && s.intersectsViewport(top, max(sl.height, 1)) {
			if sl.node.Parent() != s.root {
				s.root.Append(sl.node)
			}
			screenTop := s.scrollerTop + top - s.scrollY
			s.measurer.Place(sl.node, s.gutter, screenTop, s.width)
			continue
		}
		sl.node.Remove()
	}
}

func (s *Surface) intersectsViewport(top, height int) bool {
	return top < s.scrollY+s.height && top+height > s.scrollY
}

// Rows refreshes the layout and returns the display rows in the viewport.
func (s *Surface) Rows() []Row {
	s.Refresh()
	rows, _ := s.docRows()
	end := min(s.scrollY+s.height, len(rows))
	if s.scrollY >= end {
		return nil
	}

	rendered := make(map[*slot][]string)
	out := make([]Row, 0, end-s.scrollY)
	for _, e := range rows[s.scrollY:end] {
		if e.slot == nil {
			out = append(out, Row{Kind: LineRow, Line: e.line, Text: s.tabs.ExpandTabs(s.buf.LineText(e.line))})
			continue
		}
		lines, ok := rendered[e.slot]
		if !ok {
			lines = s.measurer.Lines(e.slot.node)
			rendered[e.slot] = lines
		}
		row := Row{Kind: WidgetRow, Line: e.line, Widget: e.slot.widget, Offset: e.offset}
		if e.offset < len(lines) {
			row.Text = lines[e.offset]
		}
		out = append(out, row)
	}
	return out
}

// Hit describes what lies under a screen position.
type Hit struct {
	// Line is the source line, or the anchor line for widget hits.
	Line int
	// Widget is set when the position is inside an inline widget.
	Widget InlineWidget
	// Node is the innermost widget node under the position.
	Node *layout.Node
	// OK is false when the position is outside the document.
	OK bool
}

// HitTest resolves a screen position without dispatching anything.
func (s *Surface) HitTest(x, y int) Hit {
	s.Refresh()
	row := y - s.scrollerTop + s.scrollY
	if y < s.scrollerTop || y >= s.scrollerTop+s.height {
		return Hit{}
	}
	rows, _ := s.docRows()
	if row < 0 || row >= len(rows) {
		return Hit{}
	}
	e := rows[row]
	if e.slot == nil {
		return Hit{Line: e.line, OK: true}
	}
	target := e.slot.node.HitTest(x, y)
	if target == nil || target == e.slot.node {
		target = e.slot.widget.Content()
	}
	return Hit{Line: e.line, Widget: e.slot.widget, Node: target, OK: true}
}

// Click dispatches a click at a screen position. Clicks on widgets are
// delivered to the node under the pointer and bubble up to the widget's
// content; clicks on source lines return focus to the surface.
func (s *Surface) Click(x, y int) Hit {
	hit := s.HitTest(x, y)
	if !hit.OK {
		return hit
	}
	if hit.Widget == nil {
		s.Blur()
		return hit
	}
	hit.Node.DispatchClick(layout.ClickEvent{X: x, Y: y, Target: hit.Node})
	return hit
}

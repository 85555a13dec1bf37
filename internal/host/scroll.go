package host

// ScrollPos returns the document position shown at the top-left of the
// text area.
func (s *Surface) ScrollPos() (x, y int) { return s.scrollX, s.scrollY }

// ScrollTo moves the viewport, clamped to the document.
func (s *Surface) ScrollTo(x, y int) {
	s.scrollX = max(x, 0)
	s.scrollY = y
	s.clampScroll()
}

// ScrollerTop returns the screen row at which the scroll area begins.
func (s *Surface) ScrollerTop() int { return s.scrollerTop }

// GutterWidth returns the width of the line-number gutter.
func (s *Surface) GutterWidth() int { return s.gutter }

// Viewport returns the surface size in cells, gutter included.
func (s *Surface) Viewport() (width, height int) { return s.width, s.height }

// Resize changes the viewport size.
func (s *Surface) Resize(width, height int) {
	if width > 0 {
		s.width = width
	}
	if height > 0 {
		s.height = height
	}
	s.measurer.SetWidth(s.textWidth())
	s.clampScroll()
}

func (s *Surface) textWidth() int {
	return max(s.width-s.gutter, 1)
}

// ScrollIntoView scrolls the minimum amount needed to show the rectangle,
// given in document coordinates relative to the text area. Right and
// bottom are exclusive.
func (s *Surface) ScrollIntoView(left, top, right, bottom int) {
	if top < s.scrollY {
		s.scrollY = top
	} else if bottom > s.scrollY+s.height {
		s.scrollY = bottom - s.height
	}

	tw := s.textWidth()
	if left < s.scrollX {
		s.scrollX = left
	} else if right > s.scrollX+tw {
		s.scrollX = right - tw
	}
	s.clampScroll()
}

// LineTop returns the document row of a visible line.
func (s *Surface) LineTop(line int) (int, bool) {
	rows, _ := s.docRows()
	for i, e := range rows {
		if e.slot == nil && e.line == line {
			return i, true
		}
	}
	return 0, false
}

// WidgetTop returns the document row where w begins. ok is false when
// w is not displayed.
func (s *Surface) WidgetTop(w InlineWidget) (int, bool) {
	i := s.find(w)
	if i < 0 {
		return 0, false
	}
	_, tops := s.docRows()
	top, ok := tops[s.slots[i]]
	return top, ok
}

// RevealInlineWidget scrolls so that w is in view.
func (s *Surface) RevealInlineWidget(w InlineWidget) {
	top, ok := s.WidgetTop(w)
	if !ok {
		return
	}
	h, _ := s.InlineWidgetHeight(w)
	s.ScrollIntoView(s.scrollX, top, s.scrollX, top+max(h, 1))
}

func (s *Surface) clampScroll() {
	maxY := max(s.ContentHeight()-s.height, 0)
	s.scrollY = min(max(s.scrollY, 0), maxY)
	s.scrollX = max(s.scrollX, 0)
}

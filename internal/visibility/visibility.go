// Package visibility keeps a block's source lines hidden in the host view
// while its range moves, grows and shrinks.
package visibility

import (
	"slices"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/engine/tracking"
)

// LineView is the host's per-line visibility API. Both operations are
// idempotent.
type LineView interface {
	HideLine(line int)
	ShowLine(line int)
}

// Controller hides the lines of one range.
type Controller struct {
	view   LineView
	prev   buffer.LineSpan
	hidden bool
}

// New creates a controller for view. Nothing is hidden until Sync.
func New(view LineView) *Controller {
	return &Controller{view: view}
}

// Hidden returns the span hidden by the last Sync.
func (c *Controller) Hidden() (buffer.LineSpan, bool) {
	return c.prev, c.hidden
}

// Track moves the previously hidden span through an edit so that it is
// compared with the new range in post-edit line numbers. Call it before
// Sync for every change notification.
func (c *Controller) Track(changes buffer.ChangeList) {
	if c.hidden && len(changes) > 0 {
		c.prev = tracking.MapSpan(changes, c.prev)
	}
}

// Sync hides every line of span except the pinned ones, and shows lines of
// the previous span that fall before span's start or after its end.
// Calling it again with the same span changes nothing.
func (c *Controller) Sync(span buffer.LineSpan, pinned ...int) {
	if c.hidden {
		for l := c.prev.Start; l <= min(c.prev.End, span.Start-1); l++ {
			c.view.ShowLine(l)
		}
		for l := max(c.prev.Start, span.End+1); l <= c.prev.End; l++ {
			c.view.ShowLine(l)
		}
	}
	for l := span.Start; l <= span.End; l++ {
		if slices.Contains(pinned, l) {
			c.view.ShowLine(l)
			continue
		}
		c.view.HideLine(l)
	}
	c.prev = span
	c.hidden = true
}

// Release shows every line hidden by the controller and forgets the span.
func (c *Controller) Release() {
	if !c.hidden {
		return
	}
	for l := c.prev.Start; l <= c.prev.End; l++ {
		c.view.ShowLine(l)
	}
	c.hidden = false
	c.prev = buffer.LineSpan{}
}

// Forget drops the hidden span without showing anything. Use it when the
// lines no longer exist.
func (c *Controller) Forget() {
	c.hidden = false
	c.prev = buffer.LineSpan{}
}

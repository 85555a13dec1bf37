// Package layout provides the host's widget tree and its size measurement.
//
// A Node is a minimal DOM-like element: it carries an HTML fragment, child
// nodes and click listeners. Nodes only receive a height when they belong to
// a live tree, that is when their root has been marked live by the host.
package layout

// Rect is a rectangle in surface cells. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the rectangle width.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the rectangle height.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// ClickEvent is delivered to click listeners. X and Y are surface
// coordinates; Target is the innermost node under the pointer.
type ClickEvent struct {
	X, Y   int
	Target *Node
}

// Node is an element of the widget tree.
type Node struct {
	class    string
	html     string
	children []*Node
	parent   *Node
	live     bool
	hidden   bool
	rows     func(width int) []string
	bounds   Rect

	handlers    map[int]func(ClickEvent)
	nextHandler int
}

// NewNode creates a detached node.
func NewNode(class string) *Node {
	return &Node{class: class}
}

// Class returns the node's class name.
func (n *Node) Class() string { return n.class }

// HTML returns the node's own HTML fragment.
func (n *Node) HTML() string { return n.html }

// SetHTML replaces the node's own HTML fragment.
func (n *Node) SetHTML(s string) { n.html = s }

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Hidden reports whether the node is excluded from painting.
func (n *Node) Hidden() bool { return n.hidden }

// SetHidden excludes the node from painting. Hidden nodes still measure.
func (n *Node) SetHidden(hidden bool) { n.hidden = hidden }

// Bounds returns the rectangle assigned by the last layout pass.
func (n *Node) Bounds() Rect { return n.bounds }

// SetBounds records where the node was laid out.
func (n *Node) SetBounds(r Rect) { n.bounds = r }

// SetRows makes n a custom-drawn node whose display rows are produced by fn
// instead of its HTML content.
func (n *Node) SetRows(fn func(width int) []string) { n.rows = fn }

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// SetLive marks a root node as part of the host's live tree.
func (n *Node) SetLive(live bool) { n.live = live }

// Attached reports whether n belongs to a live tree.
func (n *Node) Attached() bool {
	return n.Root().live
}

// Append moves child to the end of n's children.
func (n *Node) Append(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Remove()
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Empty removes the node's HTML and all its children.
func (n *Node) Empty() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	n.html = ""
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for ; other != nil; other = other.parent {
		if other == n {
			return true
		}
	}
	return false
}

// Clone returns a detached deep copy without listeners.
func (n *Node) Clone() *Node {
	c := &Node{
		class:  n.class,
		html:   n.html,
		hidden: n.hidden,
		rows:   n.rows,
	}
	for _, child := range n.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	return c
}

// OnClick registers fn for clicks on n or its descendants and returns a
// function that removes it.
func (n *Node) OnClick(fn func(ClickEvent)) func() {
	if n.handlers == nil {
		n.handlers = make(map[int]func(ClickEvent))
	}
	n.nextHandler++
	id := n.nextHandler
	n.handlers[id] = fn
	return func() { delete(n.handlers, id) }
}

// ListenerCount returns the number of registered click listeners.
func (n *Node) ListenerCount() int { return len(n.handlers) }

// DispatchClick delivers ev to the target and then to each ancestor.
func (n *Node) DispatchClick(ev ClickEvent) {
	if ev.Target == nil {
		ev.Target = n
	}
	for cur := n; cur != nil; cur = cur.parent {
		for _, fn := range cur.sortedHandlers() {
			fn(ev)
		}
	}
}

func (n *Node) sortedHandlers() []func(ClickEvent) {
	if len(n.handlers) == 0 {
		return nil
	}
	out := make([]func(ClickEvent), 0, len(n.handlers))
	for id := 1; id <= n.nextHandler; id++ {
		if fn, ok := n.handlers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// HitTest returns the deepest visible node whose bounds contain the point.
func (n *Node) HitTest(x, y int) *Node {
	if n.hidden || !n.bounds.Contains(x, y) {
		return nil
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if hit := n.children[i].HitTest(x, y); hit != nil {
			return hit
		}
	}
	return n
}

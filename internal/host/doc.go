// Package host implements the line-based editing surface that inline
// widgets attach to.
//
// A Surface displays one buffer. Source lines can be hidden individually,
// and inline widgets are anchored below a line. The surface only lays out
// widgets it considers on-tree: Refresh attaches a widget's content to the
// live root when its rows are inside the viewport, and detaches it
// otherwise. A widget anchored at a hidden line is displayed below the
// nearest visible line above it. Nodes under MeasureLayer stay attached permanently
// and are never painted.
//
// Hidden-line flags and widget anchors follow buffer edits the way line
// handles do. Deferred work queued with Defer runs on the next call to
// RunDeferred, which the application's event loop issues once per turn.
//
// A Surface is driven from a single goroutine and is not safe for
// concurrent use.
package host

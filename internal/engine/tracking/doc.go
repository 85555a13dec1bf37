// Package tracking keeps line references valid while a buffer is edited.
//
// A [Range] is a live inclusive line span bound to a buffer. It subscribes to
// the buffer's change notifications and adjusts itself:
//
//   - edits strictly before the range shift both bounds by the net line delta
//   - edits starting inside the range move only the end line
//   - edits that remove the whole span collapse the range onto the edit point
//
// A collapsed range no longer describes any text; its owner is expected to
// notice [Range.Collapsed] and discard it.
//
// [MapLine] and [Survives] describe how individual line handles move through
// a change. The host surface uses them for hidden-line flags and widget
// anchors, and the visibility controller uses them for the span it hid.
package tracking

// Package widget implements the inline widgets that show markup comments.
//
// A Preview renders one comment block in place of its hidden source lines
// and follows the block as the document changes. Clicking a preview opens a
// SourceEdit over the block's raw text below it; clicking the preview again
// closes the editor.
//
// Both widgets negotiate their height with the host through a shared sizer.
// The host only measures content attached to its live tree, so a preview
// keeps a mirror of its content in the host's measure layer and resolves
// its height from the mirror on the next turn.
package widget

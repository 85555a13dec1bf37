package host

import "errors"

var (
	// ErrSurfaceClosed is returned when operating on a closed surface.
	ErrSurfaceClosed = errors.New("surface closed")

	// ErrLineOutOfRange is returned when an anchor line does not exist.
	ErrLineOutOfRange = errors.New("line out of range")

	// ErrWidgetNotFound is returned for widgets that were never added or
	// have already been removed.
	ErrWidgetNotFound = errors.New("inline widget not found")

	// ErrWidgetExists is returned when adding a widget twice.
	ErrWidgetExists = errors.New("inline widget already added")

	// ErrEditorClosed is returned when editing through a closed inline editor.
	ErrEditorClosed = errors.New("inline editor closed")
)

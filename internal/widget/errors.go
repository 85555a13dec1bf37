package widget

import "errors"

var (
	// ErrAlreadyLoaded is returned when Load is called twice.
	ErrAlreadyLoaded = errors.New("widget already loaded")

	// ErrClosed is returned when loading a closed widget.
	ErrClosed = errors.New("widget closed")
)

package markup

import "errors"

var (
	// ErrUnknownKind is returned by New for unsupported renderer kinds.
	ErrUnknownKind = errors.New("unknown renderer kind")

	// ErrNoRenderFunction is returned when a script does not define render.
	ErrNoRenderFunction = errors.New("script does not define a render function")

	// ErrBadResult is returned when render does not return a string.
	ErrBadResult = errors.New("render did not return a string")

	// ErrClosed is returned when using a closed renderer.
	ErrClosed = errors.New("renderer closed")
)

package tracking

import "errors"

// Errors returned by range operations.
var (
	// ErrInvalidSpan indicates start > end or a bound outside the buffer.
	ErrInvalidSpan = errors.New("invalid line span")

	// ErrDisposed indicates the range was used after Dispose.
	ErrDisposed = errors.New("range disposed")
)

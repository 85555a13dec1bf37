package config

import "errors"

// Errors returned by Load and Validate.
var (
	// ErrInvalidValue indicates a setting with an unusable value.
	ErrInvalidValue = errors.New("invalid setting value")

	// ErrUnknownSetting indicates a key that no setting uses.
	ErrUnknownSetting = errors.New("unknown setting")
)

package decoder

import "errors"

// Sentinel kinds for decoder errors.
var (
	// ErrDecode wraps every per-trace failure.
	ErrDecode = errors.New("decode failed")
	// ErrNoCommand is returned when no decoder command is configured.
	ErrNoCommand = errors.New("decoder command not configured")
)

package report

import "errors"

// Sentinel kinds for report errors.
var (
	ErrWrite = errors.New("report write failed")
	// ErrFormat is returned for an unknown summary format.
	ErrFormat = errors.New("unknown summary format")
)

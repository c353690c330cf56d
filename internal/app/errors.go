package service

import "errors"

// Sentinel kinds for run errors.
var (
	ErrNoInput        = errors.New("no input traces")
	ErrNothingDecoded = errors.New("no trace could be decoded")
	// ErrDuplicateTrace marks a trace whose filename was already seen in
	// the run; it is reported as a decode failure.
	ErrDuplicateTrace = errors.New("duplicate trace name")
)
